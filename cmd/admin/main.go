package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/attestia/agent-trust-registry/api/clients"
	"github.com/attestia/agent-trust-registry/cmd/flags"
	"github.com/attestia/agent-trust-registry/interfaces"
)

var adminFlags = []cli.Flag{
	flags.ServerAddrFlag,
	flags.SignerFlag,
}

func main() {
	app := &cli.App{
		Name:  "registry-admin",
		Usage: "Administer the agent trust registry",
		Flags: adminFlags,
		Commands: []*cli.Command{
			{
				Name:      "initialize",
				Usage:     "Bootstrap the protocol with an admin key",
				ArgsUsage: "<admin-pubkey>",
				Action:    runInitialize,
			},
			{
				Name:   "pause",
				Usage:  "Pause all mutating operations",
				Action: runSetPaused(true),
			},
			{
				Name:   "unpause",
				Usage:  "Resume mutating operations",
				Action: runSetPaused(false),
			},
			{
				Name:      "transfer-admin",
				Usage:     "Hand administration to a new key",
				ArgsUsage: "<new-admin-pubkey>",
				Action:    runTransferAdmin,
			},
			{
				Name:      "add-authority",
				Usage:     "Register an attestation authority",
				ArgsUsage: "<authority-pubkey> <authority-type>",
				Action:    runAddAuthority,
			},
			{
				Name:      "remove-authority",
				Usage:     "Deactivate an authority (permanent for the pubkey)",
				ArgsUsage: "<authority-pubkey>",
				Action:    runRemoveAuthority,
			},
			{
				Name:   "advance-epoch",
				Usage:  "Increment the global revocation epoch",
				Action: runAdvanceEpoch,
			},
			{
				Name:      "unflag-agent",
				Usage:     "Clear the manual flag on an agent",
				ArgsUsage: "<agent-pubkey>",
				Action:    runUnflagAgent,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func clientFor(cCtx *cli.Context) (*clients.RegistryClient, error) {
	serverAddr := cCtx.String(flags.ServerAddrFlag.Name)

	var signer interfaces.Pubkey
	if raw := cCtx.String(flags.SignerFlag.Name); raw != "" {
		parsed, err := interfaces.NewPubkeyFromHex(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid signer key: %w", err)
		}
		signer = parsed
	}
	return clients.NewRegistryClient(serverAddr, signer), nil
}

func argPubkey(cCtx *cli.Context, position int, name string) (interfaces.Pubkey, error) {
	raw := cCtx.Args().Get(position)
	if raw == "" {
		return interfaces.Pubkey{}, fmt.Errorf("missing %s argument", name)
	}
	pubkey, err := interfaces.NewPubkeyFromHex(raw)
	if err != nil {
		return interfaces.Pubkey{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return pubkey, nil
}

func runInitialize(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	admin, err := argPubkey(cCtx, 0, "admin pubkey")
	if err != nil {
		return err
	}
	if err := client.Initialize(admin); err != nil {
		return err
	}
	fmt.Printf("protocol initialized, admin %s\n", admin.String())
	return nil
}

func runSetPaused(paused bool) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		client, err := clientFor(cCtx)
		if err != nil {
			return err
		}
		if err := client.SetPaused(paused); err != nil {
			return err
		}
		if paused {
			fmt.Println("protocol paused")
		} else {
			fmt.Println("protocol unpaused")
		}
		return nil
	}
}

func runTransferAdmin(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	newAdmin, err := argPubkey(cCtx, 0, "new admin pubkey")
	if err != nil {
		return err
	}
	if err := client.TransferAdmin(newAdmin); err != nil {
		return err
	}
	fmt.Printf("admin transferred to %s\n", newAdmin.String())
	return nil
}

func runAddAuthority(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	pubkey, err := argPubkey(cCtx, 0, "authority pubkey")
	if err != nil {
		return err
	}
	authorityType, err := interfaces.AuthorityTypeFromString(cCtx.Args().Get(1))
	if err != nil {
		return err
	}
	if err := client.AddAuthority(pubkey, authorityType); err != nil {
		return err
	}
	fmt.Printf("authority %s added as %s\n", pubkey.String(), authorityType.String())
	return nil
}

func runRemoveAuthority(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	pubkey, err := argPubkey(cCtx, 0, "authority pubkey")
	if err != nil {
		return err
	}
	if err := client.RemoveAuthority(pubkey); err != nil {
		return err
	}
	fmt.Printf("authority %s removed\n", pubkey.String())
	return nil
}

func runAdvanceEpoch(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	epoch, err := client.AdvanceRevocationEpoch()
	if err != nil {
		return err
	}
	fmt.Printf("revocation epoch advanced to %d\n", epoch)
	return nil
}

func runUnflagAgent(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	agent, err := argPubkey(cCtx, 0, "agent pubkey")
	if err != nil {
		return err
	}
	if err := client.UnflagAgent(agent); err != nil {
		return err
	}
	fmt.Printf("agent %s unflagged\n", agent.String())
	return nil
}
