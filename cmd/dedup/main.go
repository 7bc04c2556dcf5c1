package main

import (
	"os"

	"horse.fit/dedup/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
