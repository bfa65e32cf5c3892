// Package vm implements a small stop-the-world mark-sweep collected
// virtual machine.
//
// This package contains:
//   - Tagged heap objects (integers and two-field pairs)
//   - A handle-addressed arena with an intrusive allocation list
//   - A bounded root stack that anchors reachability
//   - The mark-sweep collector and its adaptive collection threshold
//   - A heap inspector and a CBOR snapshot codec
package vm
