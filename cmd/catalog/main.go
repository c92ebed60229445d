// Command catalog manages the product catalog and order schema.
package main

import "github.com/marshallshelly/pebble-catalog/cmd/catalog/commands"

func main() {
	commands.Execute()
}
