package waktunya

func crashOnError(err error) {
	if err != nil {
		panic(err)
	}
}
