// Command changefeed is an AWS Lambda function that consumes the shopping
// list table's DynamoDB stream and logs every list and item change.
package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jacentio/shoppinglist/stream"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("SHOPPINGLIST_VERBOSE") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	h := stream.NewHandler(stream.NewLogListener(logger), logger)
	lambda.Start(h.HandleChanges)
}
