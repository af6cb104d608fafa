// Package nivcengine provides a zero-knowledge WASM execution engine: it
// proves the execution trace of a WebAssembly program run on a given input,
// as a sequence of per-chunk Groth16 proofs over BN254 for the execution
// and memory-consistency sides (NIVC-style, composed sequentially rather
// than by recursive folding). The claimed return values are carried in the
// public instance but are not bound by those proofs.
//
// # Quick start
//
//	cfg := nivcengine.DefaultConfig()
//	params, err := nivcengine.Setup(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	proof, err := nivcengine.Prove(context.Background(), params, module, invocation, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ok, err := nivcengine.Verify(params, proof)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if ok {
//		fmt.Println("proof accepted")
//	}
//
// # Architecture
//
//   - pkg/nivcengine/: public API (this package)
//   - internal/nivc/: private implementation (not importable)
//
// The public surface covers Setup, Prove, Verify, and Digest; everything
// else — the tracer, the opcode gadgets, the MCC engine, and the folding
// driver — lives under internal/nivc and may change shape without breaking
// this package's contract.
//
// # Non-goals
//
// This engine does not execute WASM at native speed, does not support
// multi-threaded WASM, does not JIT-compile, and does not itself parse
// module bytes or `wat` text — callers supply an already-validated
// wasmmod.Module. It has not undergone a formal cryptographic soundness
// review.
package nivcengine
