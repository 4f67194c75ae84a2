package main

import (
	"github.com/hvichare/go-estate/cmd/cli/auth"
	"github.com/hvichare/go-estate/cmd/cli/listings"
	"github.com/hvichare/go-estate/cmd/cli/root"
)

func main() {
	auth.InitAuth(root.GetRoot())
	listings.InitListings(root.GetRoot())
	root.Execute()
}
