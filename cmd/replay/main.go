package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/google/gopacket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"quadruped-gateway/internal/capture"
	protocol "quadruped-gateway/internal/protocol/unitree"
)

var (
	ports   []uint
	verbose bool
	limit   int
)

var rootCmd = &cobra.Command{
	Use:   "replay <capture.pcap>...",
	Short: "Validate UCL packet layouts against captured traffic",
	Long: `Replay reads pcap or pcapng captures of robot traffic and runs every UDP
payload through the packet classifier.

For each packet kind it reports how many datagrams matched the fixed length,
how many carried a valid plain or obfuscated checksum, and how many failed the
checksum or the FE EF magic. Datagrams of unknown length are listed by size.

By default only the UCL ports are inspected (8007, 8082, 8090). Pass --port
to change the set, or --port 0 to inspect every UDP datagram.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.Flags().UintSliceVarP(&ports, "port", "p", []uint{8007, 8082, 8090}, "UDP ports to inspect (0 = all)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every decoded packet")
	rootCmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of packets logged with --verbose")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	opts := capture.Options{Ports: portFilter(ports)}
	if verbose {
		logged := 0
		opts.OnPacket = func(meta gopacket.CaptureInfo, pkt protocol.Packet) {
			if logged >= limit {
				return
			}
			logged++
			check := pkt.Check()
			logger.Info("Packet",
				zap.Time("ts", meta.Timestamp),
				zap.Stringer("kind", pkt.Kind()),
				zap.String("sn", protocol.SerialKey(pkt.Head().SN)),
				zap.Bool("valid", check.Valid),
				zap.Bool("encrypted", check.Encrypted))
		}
	}

	out := cmd.OutOrStdout()
	for _, path := range args {
		stats, err := capture.ReplayFile(ctx, path, opts, logger)
		if err != nil {
			return err
		}
		printSummary(out, path, stats)
	}
	return nil
}

// portFilter 0 表示不过滤
func portFilter(in []uint) []uint16 {
	var out []uint16
	for _, p := range in {
		if p == 0 {
			return nil
		}
		out = append(out, uint16(p))
	}
	return out
}

func printSummary(out io.Writer, path string, stats *capture.Stats) {
	fmt.Fprintf(out, "%s\n", path)
	fmt.Fprintf(out, "  frames: %d  udp: %d  decoded: %d\n", stats.Frames, stats.UDP, stats.Decoded())
	if !stats.First.IsZero() {
		fmt.Fprintf(out, "  span:   %s .. %s (%s)\n",
			stats.First.Format("15:04:05.000"), stats.Last.Format("15:04:05.000"), stats.Last.Sub(stats.First))
	}

	fmt.Fprintf(out, "  %-10s %8s %8s %9s %8s %9s\n", "kind", "packets", "valid", "encrypted", "invalid", "bad_magic")
	for _, ks := range stats.Sorted() {
		fmt.Fprintf(out, "  %-10s %8d %8d %9d %8d %9d\n",
			ks.Kind, ks.Packets, ks.Valid, ks.Encrypted, ks.Invalid, ks.BadMagic)
	}

	if len(stats.UnknownLength) > 0 {
		lengths := make([]int, 0, len(stats.UnknownLength))
		for l := range stats.UnknownLength {
			lengths = append(lengths, l)
		}
		sort.Ints(lengths)
		fmt.Fprintf(out, "  unknown lengths:\n")
		for _, l := range lengths {
			fmt.Fprintf(out, "    %5d bytes: %d\n", l, stats.UnknownLength[l])
		}
	}

	serials := make([]string, 0, len(stats.Serials))
	for serial := range stats.Serials {
		serials = append(serials, serial)
	}
	sort.Strings(serials)
	for _, serial := range serials {
		product, id := protocol.DecodeSerial(serialBytes(serial))
		fmt.Fprintf(out, "  robot %s (%s %s): %d packets\n", serial, product, id, stats.Serials[serial])
	}
}

// serialBytes SerialKey 的逆变换
func serialBytes(key string) [8]byte {
	var sn [8]byte
	b, _ := hex.DecodeString(key)
	copy(sn[:], b)
	return sn
}
