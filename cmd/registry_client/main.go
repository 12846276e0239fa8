package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/attestia/agent-trust-registry/api/clients"
	"github.com/attestia/agent-trust-registry/cmd/flags"
	"github.com/attestia/agent-trust-registry/interfaces"
)

var clientFlags = []cli.Flag{
	flags.ServerAddrFlag,
	flags.SignerFlag,
}

var expiresInFlag = &cli.DurationFlag{
	Name:  "expires-in",
	Value: 24 * time.Hour,
	Usage: "attestation validity window from now",
}

var quoteFileFlag = &cli.StringFlag{
	Name:  "quote-file",
	Usage: "file with the raw TDX quote to attach to an infra-tee attestation",
}

func main() {
	app := &cli.App{
		Name:  "registry-client",
		Usage: "Interact with the agent trust registry",
		Flags: clientFlags,
		Commands: []*cli.Command{
			{
				Name:      "register-agent",
				Usage:     "Create an agent identity record",
				ArgsUsage: "<wallet-pubkey> <name>",
				Action:    runRegisterAgent,
			},
			{
				Name:      "submit",
				Usage:     "Submit an attestation as the signing authority",
				ArgsUsage: "<agent-pubkey> <signal-type> <hash>",
				Flags:     []cli.Flag{expiresInFlag, quoteFileFlag},
				Action:    runSubmit,
			},
			{
				Name:      "revoke",
				Usage:     "Revoke the signing authority's attestation for an agent",
				ArgsUsage: "<agent-pubkey>",
				Action:    runRevoke,
			},
			{
				Name:      "refresh",
				Usage:     "Recompute an agent's derived trust signals",
				ArgsUsage: "<agent-pubkey>",
				Action:    runRefresh,
			},
			{
				Name:      "flag",
				Usage:     "Flag an agent as suspicious",
				ArgsUsage: "<agent-pubkey> <reason-hash>",
				Action:    runFlag,
			},
			{
				Name:      "agent",
				Usage:     "Show an agent identity record",
				ArgsUsage: "<agent-pubkey>",
				Action:    runGetAgent,
			},
			{
				Name:      "attestations",
				Usage:     "List all attestation records for an agent",
				ArgsUsage: "<agent-pubkey>",
				Action:    runGetAttestations,
			},
			{
				Name:   "config",
				Usage:  "Show the protocol configuration",
				Action: runGetConfig,
			},
			{
				Name:      "store-evidence",
				Usage:     "Upload an evidence blob and print its ID",
				ArgsUsage: "<file>",
				Action:    runStoreEvidence,
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

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runRegisterAgent(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	wallet, err := argPubkey(cCtx, 0, "wallet pubkey")
	if err != nil {
		return err
	}
	name := cCtx.Args().Get(1)
	if err := client.RegisterAgent(wallet, name); err != nil {
		return err
	}
	fmt.Printf("agent %s registered as %q\n", wallet.String(), name)
	return nil
}

func runSubmit(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	agent, err := argPubkey(cCtx, 0, "agent pubkey")
	if err != nil {
		return err
	}
	signalType, err := interfaces.SignalTypeFromString(cCtx.Args().Get(1))
	if err != nil {
		return err
	}
	hash, err := interfaces.NewAttestationHashFromHex(cCtx.Args().Get(2))
	if err != nil {
		return fmt.Errorf("invalid attestation hash: %w", err)
	}

	var quote []byte
	if quoteFile := cCtx.String(quoteFileFlag.Name); quoteFile != "" {
		quote, err = os.ReadFile(quoteFile)
		if err != nil {
			return fmt.Errorf("could not read quote file: %w", err)
		}
	}

	submission := interfaces.AttestationSubmission{
		Agent:     agent,
		Signal:    signalType,
		Hash:      hash,
		ExpiresAt: time.Now().Add(cCtx.Duration(expiresInFlag.Name)),
		TEEQuote:  quote,
	}
	if err := client.SubmitAttestation(submission); err != nil {
		return err
	}
	fmt.Printf("attestation submitted for agent %s, signal %s\n", agent.String(), signalType.String())
	return nil
}

func runRevoke(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	agent, err := argPubkey(cCtx, 0, "agent pubkey")
	if err != nil {
		return err
	}
	if err := client.RevokeAttestation(agent); err != nil {
		return err
	}
	fmt.Printf("attestation revoked for agent %s\n", agent.String())
	return nil
}

func runRefresh(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	agent, err := argPubkey(cCtx, 0, "agent pubkey")
	if err != nil {
		return err
	}
	identity, err := client.RefreshSignals(agent)
	if err != nil {
		return err
	}
	return printJSON(identity)
}

func runFlag(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	agent, err := argPubkey(cCtx, 0, "agent pubkey")
	if err != nil {
		return err
	}
	reason, err := interfaces.NewAttestationHashFromHex(cCtx.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid reason hash: %w", err)
	}
	if err := client.FlagAgent(agent, reason); err != nil {
		return err
	}
	fmt.Printf("agent %s flagged\n", agent.String())
	return nil
}

func runGetAgent(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	agent, err := argPubkey(cCtx, 0, "agent pubkey")
	if err != nil {
		return err
	}
	identity, err := client.Agent(agent)
	if err != nil {
		return err
	}
	return printJSON(identity)
}

func runGetAttestations(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	agent, err := argPubkey(cCtx, 0, "agent pubkey")
	if err != nil {
		return err
	}
	attestations, err := client.AgentAttestations(agent)
	if err != nil {
		return err
	}
	return printJSON(attestations)
}

func runGetConfig(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	config, err := client.Config()
	if err != nil {
		return err
	}
	return printJSON(config)
}

func runStoreEvidence(cCtx *cli.Context) error {
	client, err := clientFor(cCtx)
	if err != nil {
		return err
	}
	path := cCtx.Args().Get(0)
	if path == "" {
		return fmt.Errorf("missing file argument")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	id, err := client.StoreEvidence(data, interfaces.AttestationEvidence)
	if err != nil {
		return err
	}
	fmt.Printf("evidence stored, id %s\n", id.String())
	return nil
}
