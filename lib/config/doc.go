// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads packer configuration.
//
// Configuration comes from a single file named by the --config flag,
// or from command-line flags alone. There is no discovery and no
// environment override: the only environment access is ${VAR} and
// ${VAR:-default} expansion in the path and target fields,
// so a checked-in config can say "output: ${PACKED_OUT:-.packed}".
//
// Two file syntaxes are accepted, chosen by extension:
//
//   - YAML (.yaml, .yml) via gopkg.in/yaml.v3
//   - JSONC (.json, .jsonc): JSON with comments and trailing commas,
//     stripped by tidwall/jsonc before strict decoding
//
// Unknown keys are rejected in both. Relative paths resolve against
// the directory containing the config file, so the packer behaves the
// same regardless of the working directory it is invoked from.
//
// [Config.Validate] reports every problem at once (errors.Join) so a
// user fixes a broken config in one round trip.
package config
