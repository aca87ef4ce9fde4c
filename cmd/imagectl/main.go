package main

import "github.com/ironsheep/image-handle/internal/cli"

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cli.Main(Version + " (built " + BuildTime + ", commit " + GitCommit + ")")
}
