// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// chunkctl is a small operator CLI over pkg/chunk and pkg/interchange:
// inspect a serialized chunk file, or export it to the interchange
// ABI and report what got allocated. Grounded on the teacher's
// cmd/tester (cobra command tree, viper-bound flags layered over a
// tester.toml file, zap logging) — the SQL runner it drove is out of
// scope here, so the command set is new, but the wiring idiom is not.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/daviszhen/plan/pkg/chunk"
	"github.com/daviszhen/plan/pkg/common"
	"github.com/daviszhen/plan/pkg/interchange"
	"github.com/daviszhen/plan/pkg/util"
)

func init() {
	cobra.OnInitialize(loadConfig)
	initInspectCmd()
	initExportCmd()
}

var runCfg = &util.Config{}

var info = "chunkctl"
var RootCmd = &cobra.Command{
	Use:          "chunkctl",
	Short:        info,
	Long:         info,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("use chunkctl --help or -h")
	},
}

var inspectInfo = "deserialize a chunk file and print it as a tree"
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: inspectInfo,
	Long:  inspectInfo,
	RunE: func(cmd *cobra.Command, args []string) error {
		runCfg.Chunkctl.Inspect.Path = viper.GetString("chunkctl.inspect.path")
		return runInspect(runCfg.Chunkctl.Inspect.Path)
	},
}

func initInspectCmd() {
	RootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&runCfg.Chunkctl.Inspect.Path, "path", "", "chunk file path")
	_ = viper.BindPFlag("chunkctl.inspect.path", inspectCmd.Flags().Lookup("path"))
}

func runInspect(path string) error {
	if path == "" {
		return fmt.Errorf("inspect: --path is required")
	}
	deserial, err := util.NewFileDeserialize(path)
	if err != nil {
		return err
	}
	defer deserial.Close()

	for {
		c := &chunk.Chunk{}
		if err := c.Deserialize(deserial); err != nil {
			return err
		}
		if c.ColumnCount() == 0 {
			break
		}
		c.Print()
	}
	return nil
}

var exportInfo = "deserialize a chunk file, run interchange export, report per-column buffer stats"
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: exportInfo,
	Long:  exportInfo,
	RunE: func(cmd *cobra.Command, args []string) error {
		runCfg.Chunkctl.Export.Path = viper.GetString("chunkctl.export.path")
		runCfg.Chunkctl.Export.Format = viper.GetString("chunkctl.export.format")
		runCfg.Chunkctl.Export.Out = viper.GetString("chunkctl.export.out")
		return runExport(runCfg.Chunkctl.Export)
	},
}

func initExportCmd() {
	RootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&runCfg.Chunkctl.Export.Path, "path", "", "chunk file path")
	exportCmd.Flags().StringVar(&runCfg.Chunkctl.Export.Format, "format", "arrow", "export format: arrow, parquet")
	exportCmd.Flags().StringVar(&runCfg.Chunkctl.Export.Out, "out", "", "parquet output path (format=parquet only)")
	_ = viper.BindPFlag("chunkctl.export.path", exportCmd.Flags().Lookup("path"))
	_ = viper.BindPFlag("chunkctl.export.format", exportCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("chunkctl.export.out", exportCmd.Flags().Lookup("out"))
}

func runExport(opts util.ExportOptions) error {
	if opts.Path == "" {
		return fmt.Errorf("export: --path is required")
	}
	deserial, err := util.NewFileDeserialize(opts.Path)
	if err != nil {
		return err
	}
	defer deserial.Close()

	c := &chunk.Chunk{}
	if err := c.Deserialize(deserial); err != nil {
		return err
	}

	switch opts.Format {
	case "arrow":
		arr, sch, err := interchange.Export(c)
		if err != nil {
			return err
		}
		defer arr.Release(arr)
		fmt.Printf("root: %d columns, %d rows, format=%s\n", arr.NChildren, arr.Length, sch.Format)
		for i, child := range arr.Children {
			fmt.Printf("  col%d: format=%s buffers=%d children=%d null_count=%d\n",
				i, sch.Children[i].Format, child.NBuffers, child.NChildren, child.NullCount)
		}
		return nil
	case "parquet":
		if opts.Out == "" {
			return fmt.Errorf("export: --out is required for format=parquet")
		}
		names := make([]string, c.ColumnCount())
		colTypes := make([]common.LType, c.ColumnCount())
		for i := range colTypes {
			colTypes[i] = c.Data[i].Typ()
			names[i] = fmt.Sprintf("col%d", i)
		}
		return interchange.WriteParquet(opts.Out, names, colTypes, []*chunk.Chunk{c})
	default:
		return fmt.Errorf("export: unknown format %q", opts.Format)
	}
}

var defCfgFilePaths = []string{".", "etc"}
var cfgFileName = "chunkctl.toml"

func loadConfig() {
	for _, dirPath := range defCfgFilePaths {
		fpath := filepath.Join(dirPath, cfgFileName)
		if util.FileIsValid(fpath) {
			viper.SetConfigFile(fpath)
			if err := viper.ReadInConfig(); err != nil {
				util.Error("viper load config file failed",
					zap.String("fpath", fpath),
					zap.Error(err))
				continue
			}
			return
		}
	}
	util.Info("chunkctl.toml not found, proceeding with flag defaults only")
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
