package main

import "github.com/redactyl/bextract/cmd/bextract"

func main() { bextract.Execute() }
