// Command nivc-prover is a plain JSON-lines CLI front-end over
// pkg/nivcengine, in the same stdin-lines/stderr-log/stdout-proof shape the
// teacher's prover CLI uses (cmd/vybium-vm-prover/main.go).
package main

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"github.com/zkwasm/nivc-engine/internal/nivc/wasmmod"
	"github.com/zkwasm/nivc-engine/pkg/nivcengine"
)

func sha256Digest(b []byte) [32]byte { return sha256.Sum256(b) }

// ModuleInput is the JSON wire shape of a wasmmod.Module this CLI accepts
// on its first stdin line. Parsing real WASM bytes remains out of scope
// (spec §1/§6); this format exists only so the CLI has something concrete
// to read.
type ModuleInput struct {
	Types     []wasmmod.FuncType  `json:"types"`
	Functions []wasmmod.Function  `json:"functions"`
	Memories  []wasmmod.Memory    `json:"memories"`
	Globals   []wasmmod.Global    `json:"globals"`
	Tables    []wasmmod.Table     `json:"tables"`
	Imports   []wasmmod.Import    `json:"imports"`
	Exports   []wasmmod.Export    `json:"exports"`
}

type jsonModule struct {
	ModuleInput
	digest [32]byte
}

func (m *jsonModule) Types() []wasmmod.FuncType     { return m.ModuleInput.Types }
func (m *jsonModule) Functions() []wasmmod.Function { return m.ModuleInput.Functions }
func (m *jsonModule) Memories() []wasmmod.Memory    { return m.ModuleInput.Memories }
func (m *jsonModule) Globals() []wasmmod.Global     { return m.ModuleInput.Globals }
func (m *jsonModule) Tables() []wasmmod.Table       { return m.ModuleInput.Tables }
func (m *jsonModule) Imports() []wasmmod.Import     { return m.ModuleInput.Imports }
func (m *jsonModule) Exports() []wasmmod.Export     { return m.ModuleInput.Exports }
func (m *jsonModule) Digest() [32]byte              { return m.digest }

func (m *jsonModule) EntryResolution(name string) (int, bool) {
	for _, e := range m.ModuleInput.Exports {
		if e.Name == name && e.Kind == wasmmod.ExportFunc {
			return e.Idx, true
		}
	}
	return 0, false
}

// InvocationInput is the second stdin line: entry function name and
// ordered argument values.
type InvocationInput struct {
	EntryFunction string   `json:"entry_function"`
	Args          []uint64 `json:"args"`
}

func main() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<24)

	if !scanner.Scan() {
		fatal("failed to read module")
	}
	var modInput ModuleInput
	if err := json.Unmarshal(scanner.Bytes(), &modInput); err != nil {
		fatal(fmt.Sprintf("failed to parse module: %v", err))
	}
	moduleDigest := sha256Digest(scanner.Bytes())

	if !scanner.Scan() {
		fatal("failed to read invocation")
	}
	var invInput InvocationInput
	if err := json.Unmarshal(scanner.Bytes(), &invInput); err != nil {
		fatal(fmt.Sprintf("failed to parse invocation: %v", err))
	}

	mod := &jsonModule{ModuleInput: modInput, digest: moduleDigest}

	logStderr("compiling step circuits...")
	cfg := nivcengine.DefaultConfig()
	params, err := nivcengine.Setup(cfg)
	if err != nil {
		fatal(fmt.Sprintf("setup failed: %v", err))
	}

	logStderr("tracing and folding...")
	proof, err := nivcengine.Prove(context.Background(), params, mod, nivcengine.Invocation{
		EntryFunction: invInput.EntryFunction,
		Args:          invInput.Args,
	}, nil)
	if err != nil {
		fatal(fmt.Sprintf("proof generation failed: %v", err))
	}

	logStderr("proof generated successfully")

	proofBytes, err := json.Marshal(proof)
	if err != nil {
		fatal(fmt.Sprintf("failed to serialize proof: %v", err))
	}
	os.Stdout.Write(proofBytes)
	os.Stdout.Write([]byte("\n"))
}

func logStderr(msg string) {
	fmt.Fprintln(os.Stderr, "nivc-prover:", msg)
}

func fatal(msg string) {
	logStderr("ERROR: " + msg)
	os.Exit(1)
}
