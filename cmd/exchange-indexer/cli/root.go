package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/impossiblefinance/exchange-indexer/exchange"
	"github.com/impossiblefinance/exchange-indexer/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "exchange-indexer",
	Short: "Replays decoded pool events into the pair ledger",
	RunE:  runRoot,
}

func init() {
	rootCmd.Flags().String("network-config", "./network.yaml", "Path to the network configuration file")
	rootCmd.Flags().String("events", "-", "Path to the JSONL events file, - for standard input")
	rootCmd.Flags().Bool("dump-store", true, "Print the final store content as JSON")

	if err := viper.BindPFlags(rootCmd.Flags()); err != nil {
		panic(fmt.Errorf("binding flags: %w", err))
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	config, err := exchange.LoadNetworkConfig(viper.GetString("network-config"))
	if err != nil {
		return err
	}

	zlog.Info("network configuration loaded",
		zap.String("network", config.Network),
		zap.String("factory", config.FactoryAddress),
		zap.Int("whitelist_size", len(config.Whitelist)),
	)

	input, err := openEvents(viper.GetString("events"))
	if err != nil {
		return err
	}
	defer input.Close()

	store := storage.NewMemoryStore()
	chain := exchange.NewStaticChainReader()
	subgraph := exchange.NewSubgraph(store, chain, config)

	eventCount, err := replay(subgraph, chain, input)
	if err != nil {
		return err
	}

	zlog.Info("replay complete", zap.Int("events", eventCount))

	if viper.GetBool("dump-store") {
		if err := dumpStore(cmd.OutOrStdout(), store); err != nil {
			return err
		}
	}

	return nil
}

func openEvents(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening events file: %w", err)
	}
	return file, nil
}

func replay(subgraph *exchange.Subgraph, chain *exchange.StaticChainReader, input io.Reader) (int, error) {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	eventCount := 0
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		env := &envelope{}
		if err := json.Unmarshal(line, env); err != nil {
			return eventCount, fmt.Errorf("line %d: unmarshalling envelope: %w", lineNum, err)
		}

		if env.Type == "balance" {
			if err := declareBalance(env, chain); err != nil {
				return eventCount, fmt.Errorf("line %d: %w", lineNum, err)
			}
			continue
		}

		event, err := decodeEvent(env, chain)
		if err != nil {
			return eventCount, fmt.Errorf("line %d: %w", lineNum, err)
		}

		if err := subgraph.HandleEvent(event); err != nil {
			return eventCount, fmt.Errorf("line %d: handling %s event: %w", lineNum, env.Type, err)
		}
		eventCount++
	}
	if err := scanner.Err(); err != nil {
		return eventCount, fmt.Errorf("reading events: %w", err)
	}

	return eventCount, nil
}

func dumpStore(out io.Writer, store *storage.MemoryStore) error {
	data, err := json.MarshalIndent(store.Tables(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling store: %w", err)
	}

	_, err = fmt.Fprintln(out, string(data))
	return err
}
