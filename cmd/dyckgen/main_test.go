// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
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
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/awslabs/ar-go-dyck/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exampleGraph = filepath.Join("..", "..", "analysis", "graphfile", "testdata", "example.yaml")

func execute(t *testing.T, args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "build", "--offline", "--export-dyck", "--snapshot", "--reports", dir, exampleGraph)
	require.NoError(t, err)
	assert.Contains(t, out, "example")
	assert.Contains(t, out, "offline:")
	assert.Contains(t, out, "dyck:")

	for _, name := range []string{"example.dyck.txt", "example.dyck.msgpack"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(dir, "example.offline.txt"))
	assert.True(t, os.IsNotExist(err), "the offline graph is only exported with --export-offline")
}

func TestBuildCommandSameFileTwice(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "build", "--export-offline", "--reports", dir, exampleGraph, exampleGraph)
	require.NoError(t, err)
	for _, name := range []string{"example-0.offline.txt", "example-1.offline.txt"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestBuildCommandErrors(t *testing.T) {
	_, err := execute(t, "build")
	assert.Error(t, err)

	_, err = execute(t, "build", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = execute(t, "build", "--config", filepath.Join(t.TempDir(), "missing.yaml"), exampleGraph)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dyckgen version "+analysis.Version+"\n", out)
}

func TestInputNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, inputNames([]string{"x/a.yaml", "b.yml"}))
	assert.Equal(t, []string{"a-0", "c", "a-2"}, inputNames([]string{"x/a.yaml", "c", "y/a.yaml"}))
}

func TestReportsFlagOverridesConfig(t *testing.T) {
	configDir := t.TempDir()
	configFile := filepath.Join(configDir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("options:\n  export-dyck: true\n"), 0600))
	reports := filepath.Join(t.TempDir(), "reports")

	_, err := execute(t, "build", "--config", configFile, "--reports", reports, exampleGraph)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(reports, "example.dyck.txt"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(configDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no reports dir should be created next to the config file")
}
