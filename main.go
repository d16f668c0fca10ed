package main

import (
	"log"

	"github.com/wrenlab/folio-backend/cmd"
	"github.com/wrenlab/folio-backend/config"
)

func main() {
	log.Printf("folio backend %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
