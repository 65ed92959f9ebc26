// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package store holds the point records a spatial index is built from.
//
// A record is an id plus a fixed-length row of float64 values whose
// columns are named by a Schema. Ids are assigned by the store on insert,
// start at 1 and increase monotonically. Memory keeps records in process;
// Redis and Postgres keep them in an external server and implement the
// same interfaces.
package store
