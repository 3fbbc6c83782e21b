package waktunya

import (
	"io"
	"log"
	"net/http"

	"github.com/carlmjohnson/versioninfo"
	"github.com/cskr/pubsub/v2"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Server exposes the session's observable state to the rendering layer:
// plain JSON snapshots plus a newline-delimited JSON event stream.
type Server struct {
	port    string
	server  *gin.Engine
	events  *pubsub.PubSub[string, Event]
	session *Session
}

func NewServerWithOptions(port string, events *pubsub.PubSub[string, Event], session *Session) *Server {
	server := &Server{
		port:    port,
		server:  gin.Default(),
		events:  events,
		session: session,
	}
	server.setupRoutes()
	return server
}

func (s *Server) Run() {
	log.Printf("State server running at :%v", s.port)
	log.Println(s.server.Run(":" + s.port))
}

func (s *Server) setupRoutes() {
	s.server.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"count":   s.session.Count(),
			"state":   s.session.State(),
			"elapsed": s.session.Elapsed(),
		})
	})

	s.server.GET("/presence/count", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"count": s.session.Count()})
	})

	s.server.GET("/presence/visitors", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.session.Visitors())
	})

	s.server.GET("/connection/state", func(c *gin.Context) {
		c.String(http.StatusOK, string(s.session.State()))
	})

	s.server.GET("/session/profile", func(c *gin.Context) {
		// renders JSON null until the first refresh resolves
		c.JSON(http.StatusOK, s.session.Profile())
	})

	s.server.GET("/session/elapsed", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"seconds": s.session.Elapsed()})
	})

	s.server.GET("/events", streamRateLimiter(), func(c *gin.Context) {
		c.Header("Connection", "Keep-Alive")
		c.Header("Keep-Alive", "timeout=10, max=1000")

		ctx := c.Request.Context()
		closeNotify := c.Writer.CloseNotify()

		myEvents := s.events.Sub(Topic)
		defer s.events.Unsub(myEvents, Topic)

		streamOneEvent(c, NewSimpleEvent("StartedListening"))
		streamOneEvent(c, NewEventWithParam("Revision", versioninfo.Revision))
		streamOneEvent(c, NewEventWithParam("LastSeenState", string(s.session.State())))
		streamOneEvent(c, NewEventWithParam(VisitorsActiveEvent, s.session.Count()))

		// callback returns false on end of processing
		c.Stream(func(w io.Writer) bool {
			select {
			case <-ctx.Done():
				log.Printf("subscriber disconnected")
				return false

			case <-closeNotify:
				log.Printf("subscriber closed the connection")
				return false

			case event := <-myEvents:
				streamOneEvent(c, event)
				return true
			}
		})
	})
}

func streamRateLimiter() gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted("30-M")
	crashOnError(err)
	return mgin.NewMiddleware(limiter.New(memory.NewStore(), rate))
}

func streamOneEvent(c *gin.Context, event any) {
	c.JSON(http.StatusOK, event)
	c.String(http.StatusOK, "\n")
	c.Writer.(http.Flusher).Flush()
}
