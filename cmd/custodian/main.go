package main

import (
	"log"

	"github.com/spf13/cobra"

	"vgw/internal/constants"
	"vgw/internal/custodian"
)

func main() {
	var (
		socketPath string
		keyFiles   []string
		maxConns   int
	)

	root := &cobra.Command{
		Use:   "vgw-custodian",
		Short: "Key custodian daemon holding the gateway's private keys",
		Run: func(cmd *cobra.Command, args []string) {
			c, err := custodian.LoadKeys(keyFiles)
			if err != nil {
				log.Fatalf("Failed to load keys: %v", err)
			}

			l, err := custodian.Listen(socketPath, maxConns)
			if err != nil {
				log.Fatalf("Failed to bind custodian socket: %v", err)
			}
			defer l.Close()

			log.Printf("🔑 Custodian serving %d key(s) on %s", len(keyFiles), socketPath)
			if err := c.Serve(l); err != nil {
				log.Fatalf("Custodian stopped: %v", err)
			}
		},
	}
	root.Flags().StringVarP(&socketPath, "socket", "s", constants.DefaultCustodianSocket, "unix socket to serve on")
	root.Flags().StringSliceVarP(&keyFiles, "key", "k", nil, "PEM private key file, in certificate order (repeatable)")
	root.Flags().IntVar(&maxConns, "max-conns", constants.MaxCustodianConns, "maximum concurrent delegation connections")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
