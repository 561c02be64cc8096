package main

import (
	"healthsync-aggregator/cmd/bootstrap"

	"github.com/sirupsen/logrus"
)

func main() {
	// Connect both stores and wire the pipeline
	app, err := bootstrap.New()
	if err != nil {
		logrus.Fatalf("Failed to initialize aggregator: %v", err)
	}

	// Run one aggregation pass; connections are closed before Run returns
	if err := app.Run(); err != nil {
		logrus.Fatalf("Aggregation run aborted: %v", err)
	}
}
