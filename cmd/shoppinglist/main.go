// Command shoppinglist manages shopping lists and items stored in DynamoDB.
package main

import (
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).command().Execute(); err != nil {
		os.Exit(1)
	}
}
