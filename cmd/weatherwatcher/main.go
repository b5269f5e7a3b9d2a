package main

import (
	"weather-telemetry/internal/cli"
)

func main() {
	cli.Execute()
}
