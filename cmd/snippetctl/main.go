// Copyright 2022 ZUP IT SERVICOS EM TECNOLOGIA E INOVACAO SA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// snippetctl drives the extraction core from the command line: parse single
// files, extract chunk/snippet batches from a tree, and manage custom DSL
// rules. Exit codes: 0 success, 1 parse error, 2 validation error, 3
// unsupported language, 4 resource limit exceeded.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	engine "github.com/horusec-io/codesnippet-engine"
	"github.com/horusec-io/codesnippet-engine/dsl"
	"github.com/horusec-io/codesnippet-engine/internal/lang"
	"github.com/horusec-io/codesnippet-engine/parser"
	"github.com/horusec-io/codesnippet-engine/rules"
	"github.com/horusec-io/codesnippet-engine/text"
	"github.com/horusec-io/codesnippet-engine/validator"
)

const (
	exitParseError     = 1
	exitValidation     = 2
	exitUnsupported    = 3
	exitResourceLimit  = 4
)

func main() {
	cmd := &cli.Command{
		Name:  "snippetctl",
		Usage: "parse source files and extract semantic code snippets",
		Commands: []*cli.Command{
			parseCommand(),
			extractCommand(),
			rulesCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error(err.Error())

		if coder, ok := err.(cli.ExitCoder); ok {
			os.Exit(coder.ExitCode())
		}

		os.Exit(1)
	}
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "parse one file and report the outcome",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "language", Usage: "override extension-based language detection"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("parse: missing file argument", exitValidation)
			}

			language := resolveLanguage(cmd.String("language"), path)
			if !language.Supported() {
				return cli.Exit(fmt.Sprintf("parse: unsupported language for %s", path), exitUnsupported)
			}

			content, err := text.ReadTextFile(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("parse: %v", err), exitParseError)
			}

			p := parser.New(parser.Config{})
			result := p.Parse(ctx, content, language)

			printJSON(map[string]any{
				"language":      result.Language,
				"success":       result.Success,
				"error":         result.Error,
				"parse_time_ms": result.ParseTimeMS,
				"cache":         p.CacheStats(),
			})

			if !result.Success {
				return cli.Exit("parse failed: "+result.Error, parseExitCode(result))
			}

			return nil
		},
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "extract chunks and snippets from a file or directory tree",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "profile", Value: "production", Usage: "validator profile: production or development"},
			&cli.StringFlag{Name: "policy", Value: "language-specific", Usage: "rule selection: comprehensive, language-specific, focused, framework"},
			&cli.StringFlag{Name: "focus", Usage: "focus subset for --policy focused"},
			&cli.StringFlag{Name: "framework", Usage: "framework for --policy framework"},
			&cli.StringFlag{Name: "rules-dir", Usage: "storage root holding custom DSL rules to load"},
			&cli.IntFlag{Name: "pool", Value: 10, Usage: "worker pool size"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root := cmd.Args().First()
			if root == "" {
				return cli.Exit("extract: missing path argument", exitValidation)
			}

			eng := engine.NewEngine(int(cmd.Int("pool")), engine.AcceptAnyExtension)
			eng.SetValidatorProfile(profileFromFlag(cmd.String("profile")))
			eng.SetSelection(engine.RuleSelection{
				Policy:    engine.SelectionPolicy(cmd.String("policy")),
				Focus:     rules.Focus(cmd.String("focus")),
				Framework: rules.Framework(cmd.String("framework")),
			})

			if dir := cmd.String("rules-dir"); dir != "" {
				if err := loadCustomRules(eng, dir); err != nil {
					return cli.Exit(fmt.Sprintf("extract: %v", err), exitValidation)
				}
			}

			info, err := os.Stat(root)
			if err != nil {
				return cli.Exit(fmt.Sprintf("extract: %v", err), exitParseError)
			}

			var results []engine.FileResult

			if info.IsDir() {
				results, err = eng.Run(ctx, root)
				if err != nil {
					return cli.Exit(fmt.Sprintf("extract: %v", err), exitParseError)
				}
			} else {
				results = append(results, *eng.ExtractFile(ctx, root))
			}

			printJSON(results)

			if code := batchExitCode(results); code != 0 {
				return cli.Exit("extract: batch finished with errors", code)
			}

			return nil
		},
	}
}

func rulesCommand() *cli.Command {
	storageFlag := &cli.StringFlag{Name: "storage", Value: ".", Usage: "storage root for custom rules"}

	return &cli.Command{
		Name:  "rules",
		Usage: "manage custom DSL rules",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list stored custom rules",
				Flags: []cli.Flag{storageFlag},
				Action: func(_ context.Context, cmd *cli.Command) error {
					defs, err := dsl.NewStore(cmd.String("storage")).List()
					if err != nil {
						return cli.Exit(fmt.Sprintf("rules list: %v", err), exitValidation)
					}

					printJSON(defs)

					return nil
				},
			},
			{
				Name:      "compile",
				Usage:     "compile a DSL source file and store the rule",
				ArgsUsage: "<file.rule>",
				Flags:     []cli.Flag{storageFlag},
				Action: func(_ context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return cli.Exit("rules compile: missing file argument", exitValidation)
					}

					source, err := os.ReadFile(path)
					if err != nil {
						return cli.Exit(fmt.Sprintf("rules compile: %v", err), exitValidation)
					}

					decl, err := dsl.Parse(string(source))
					if err != nil {
						return cli.Exit(fmt.Sprintf("rules compile: %v", err), exitValidation)
					}

					def := dsl.ToDefinition(decl)
					if err := dsl.NewStore(cmd.String("storage")).Save(def); err != nil {
						return cli.Exit(fmt.Sprintf("rules compile: %v", err), exitValidation)
					}

					printJSON(def)

					return nil
				},
			},
			{
				Name:      "export",
				Usage:     "export a stored rule as JSON",
				ArgsUsage: "<rule-id>",
				Flags:     []cli.Flag{storageFlag},
				Action: func(_ context.Context, cmd *cli.Command) error {
					id := cmd.Args().First()
					if id == "" {
						return cli.Exit("rules export: missing rule id", exitValidation)
					}

					data, err := dsl.NewStore(cmd.String("storage")).Export(id)
					if err != nil {
						return cli.Exit(fmt.Sprintf("rules export: %v", err), exitValidation)
					}

					fmt.Println(string(data))

					return nil
				},
			},
			{
				Name:      "import",
				Usage:     "validate and store an exported rule document",
				ArgsUsage: "<file.json>",
				Flags:     []cli.Flag{storageFlag},
				Action: func(_ context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return cli.Exit("rules import: missing file argument", exitValidation)
					}

					data, err := os.ReadFile(path)
					if err != nil {
						return cli.Exit(fmt.Sprintf("rules import: %v", err), exitValidation)
					}

					def, err := dsl.NewStore(cmd.String("storage")).Import(data)
					if err != nil {
						return cli.Exit(fmt.Sprintf("rules import: %v", err), exitValidation)
					}

					printJSON(def)

					return nil
				},
			},
		},
	}
}

// loadCustomRules compiles every stored rule and registers it alongside the
// built-ins. Diagnostics from highlight/report actions go to the logger.
func loadCustomRules(eng *engine.Engine, dir string) error {
	defs, err := dsl.NewStore(dir).List()
	if err != nil {
		return err
	}

	sink := func(d dsl.Diagnostic) {
		log.Info("rule diagnostic",
			"rule", d.RuleName, "action", d.Action, "kind", d.NodeKind, "line", d.Line)
	}

	for _, def := range defs {
		compiled, err := dsl.Compile(def, sink)
		if err != nil {
			return err
		}

		if err := eng.Registry().Register(compiled); err != nil {
			return err
		}
	}

	return nil
}

func resolveLanguage(override, path string) lang.Language {
	if override != "" {
		return lang.Language(override)
	}

	return lang.DetectByExtension(path)
}

func profileFromFlag(name string) validator.Profile {
	if name == "development" {
		return validator.ProfileDevelopment
	}

	return validator.ProfileProduction
}

func parseExitCode(result *parser.ParseResult) int {
	switch result.Err() {
	case parser.ErrUnsupportedLanguage:
		return exitUnsupported
	case parser.ErrFileTooLarge:
		return exitResourceLimit
	default:
		return exitParseError
	}
}

// batchExitCode maps a finished batch onto the CLI contract: resource
// limits dominate, then unsupported languages, then other per-file errors;
// a fully clean batch exits zero.
func batchExitCode(results []engine.FileResult) int {
	code := 0

	for i := range results {
		switch {
		case results[i].Partial:
			return exitResourceLimit
		case results[i].Error == parser.ErrUnsupportedLanguage.Error():
			code = exitUnsupported
		case results[i].Error != "" && code == 0:
			code = exitParseError
		}
	}

	return code
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal("encode output", "err", err)
	}

	fmt.Println(string(data))
}
