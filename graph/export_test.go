// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graph

// PoolStarted reports whether g has started its recording workers.
func PoolStarted(g *Graph) bool { return g.pool != nil }

// Lists returns the number of command lists g holds for its nodes.
func Lists(g *Graph) int {
	n := 0
	for _, ns := range g.nodes {
		if ns.list != nil {
			n++
		}
		n += len(ns.forks)
	}
	return n
}
