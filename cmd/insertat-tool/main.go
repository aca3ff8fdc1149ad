// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/matrixorigin/groupinsert/pkg/config"
	"github.com/matrixorigin/groupinsert/pkg/logutil"
)

var (
	configFile = flag.String("cfg", "", "toml configuration of the log and the aggregation")
	inputFile  = flag.String("input", "", "csv input with key,value,position rows, stdin if empty")
	outputFile = flag.String("output", "", "result file, stdout if empty")
	elemType   = flag.String("type", "bigint", "element type of the value column")
	posType    = flag.String("postype", "bigint unsigned", "type of the position column")
	defaultVal = flag.String("default", "", "default value of the positions no row wrote")
	length     = flag.Uint64("length", 0, "length of every result array, 0 for the largest position + 1")
	header     = flag.Bool("header", false, "skip the first csv line")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	cfg := &config.Config{}
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadConfigFromFile(ctx, *configFile); err != nil {
			panic(fmt.Sprintf("failed to parse config from %s, error: %s", *configFile, err.Error()))
		}
	} else {
		cfg.Fill()
	}
	logutil.SetupMOLogger(&cfg.Log)

	opts := options{
		elemType:   *elemType,
		posType:    *posType,
		header:     *header,
		length:     *length,
		hasDefault: isFlagSet("default"),
		defaultVal: *defaultVal,
	}

	in := os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open input: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}
	out := os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := run(ctx, opts, cfg.Agg, in, out); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
