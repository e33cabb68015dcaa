package main

import "rosterbot/internal/app"

func main() {
	app.Main()
}
