package main

import "michaelyusak/go-depth-relay.git/server"

func main() {
	server.Init()
}
