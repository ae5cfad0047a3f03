package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/olsagg/aggregate"
	"github.com/arloliu/olsagg/wire"
)

func newStateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Encode, merge and inspect partial aggregation states",
	}
	cmd.AddCommand(
		newStateEncodeCmd(a),
		newStateMergeCmd(a),
		newStateInspectCmd(),
	)

	return cmd
}

func newStateEncodeCmd(a *app) *cobra.Command {
	var (
		out   string
		flags csvFlags
	)

	cmd := &cobra.Command{
		Use:   "encode --out FILE [csv files...]",
		Short: "Reduce CSV files into one encoded state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			flags.apply(cmd, &a.cfg)
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := a.runContext(cmd)
			defer cancel()

			aggOpts, err := a.aggregateOptions()
			if err != nil {
				return err
			}
			wireOpts, err := a.wireOptions()
			if err != nil {
				return err
			}

			parts, closeAll, err := a.openPartitions(args)
			if err != nil {
				return err
			}
			defer closeAll()

			st, err := aggregate.Reduce(ctx, parts, aggOpts...)
			if err != nil {
				return err
			}
			defer st.Release()

			data, err := wire.Marshal(st, wireOpts...)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			a.logger.Info("state written",
				zap.String("path", out),
				zap.Uint64("rows", st.N()),
				zap.Int("bytes", len(data)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d rows, %d predictors, %d bytes\n", out, st.N(), st.P(), len(data))

			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output state file")
	flags.register(cmd)

	return cmd
}

func newStateMergeCmd(a *app) *cobra.Command {
	var (
		out   string
		names []string
	)

	cmd := &cobra.Command{
		Use:   "merge [state files...]",
		Short: "Merge encoded states and print the fitted model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("names") {
				a.cfg.Names = names
			}

			ctx, cancel := a.runContext(cmd)
			defer cancel()

			blobs := make([][]byte, len(args))
			for i, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				blobs[i] = data
			}

			aggOpts, err := a.aggregateOptions()
			if err != nil {
				return err
			}
			st, err := aggregate.MergeEncoded(ctx, blobs, aggOpts...)
			if err != nil {
				return err
			}
			defer st.Release()

			if out != "" {
				wireOpts, err := a.wireOptions()
				if err != nil {
					return err
				}
				data, err := wire.Marshal(st, wireOpts...)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return err
				}
				a.logger.Info("merged state written", zap.String("path", out), zap.Uint64("rows", st.N()))
			}

			return a.report(cmd, st)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Also write the merged state to this file")
	cmd.Flags().StringSliceVar(&names, "names", nil, "Coefficient labels used in the report")

	return cmd
}

func newStateInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [state files...]",
		Short: "Print the header of encoded states",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				h, err := wire.ParseHeader(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				order := "little"
				if h.Flag.IsBigEndian() {
					order = "big"
				}
				fmt.Fprintf(w, "%s: rows=%d predictors=%d compensated=%t compression=%s endian=%s payload=%d raw=%d checksum=%016x\n",
					path, h.N, h.P, h.Flag.IsCompensated(), h.Flag.CompressionType(), order,
					h.PayloadLen, h.RawLen, h.Checksum)
			}

			return nil
		},
	}
}
