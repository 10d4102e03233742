package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/devspacehq/pulse/storage"
)

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, "pulsemigrate: move watcher data between storage backends\n")
	_, _ = fmt.Fprintf(os.Stderr, "\n")
	_, _ = fmt.Fprintf(os.Stderr, "Subcommands:\n")
	_, _ = fmt.Fprintf(os.Stderr, "  checkpoints   Migrate checkpoints between the relational and the badger backend\n")
	_, _ = fmt.Fprintf(os.Stderr, "\n")
	_, _ = fmt.Fprintf(os.Stderr, "Use 'pulsemigrate <subcommand> -h' for help on a subcommand.\n")
}

func checkpointsCmd(args []string) int {
	fs := flag.NewFlagSet("checkpoints", flag.ExitOnError)
	var (
		configFile = fs.String("config", "config.yaml", "the config file to use")
		direction  = fs.String("to", "", "target backend: 'badger' or 'gorm'")
		v          = fs.Bool("v", false, "Verbose logging")
	)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: pulsemigrate checkpoints -config <file> -to <badger|gorm>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *v {
		log.SetLevel(log.DebugLevel)
	}
	target := storage.CheckpointBackendType(*direction)
	if target != storage.CheckpointBackendBadger && target != storage.CheckpointBackendGorm {
		_, _ = fmt.Fprintln(os.Stderr, "-to must be 'badger' or 'gorm'")
		fs.Usage()
		return 2
	}

	if err := migrateCheckpoints(*configFile, target); err != nil {
		log.WithError(err).Error("checkpoint migration failed")
		return 1
	}
	log.Info("checkpoint migration completed")
	return 0
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "checkpoints":
		os.Exit(checkpointsCmd(os.Args[2:]))
	case "-h", "--help", "help":
		usage()
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown subcommand '%s'\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}
