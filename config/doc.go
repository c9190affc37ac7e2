// Copyright 2025 The Nancy Authors
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

// Package config loads layered configuration into a struct.
//
// Sources are read in order and merged, later sources overriding earlier
// ones. Keys are case-insensitive. The merged values can be checked
// against a JSON Schema and custom validators before they are bound:
//
//	var s nancy.Settings
//	cfg := config.MustNew(
//	    config.WithFile("nancy.yaml"),
//	    config.WithConsul("nancy/config.yaml"),
//	    config.WithEnv("NANCY_"),
//	    config.WithJSONSchema(nancy.SettingsSchema),
//	    config.WithBinding(&s),
//	)
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//
// Struct fields are matched by their "config" tag. Fields with a
// "default" tag take that value unless a source sets them.
//
// Environment variables nest on a double underscore, so with prefix
// "NANCY_" the variable NANCY_DIAGNOSTICS__COOKIE_NAME sets
// diagnostics.cookie_name. The values "true" and "false" are read as
// booleans.
package config
