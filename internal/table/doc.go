// Package table implements the ordered (partition, sort) record store that
// all Relay entities share, including the reverse index that answers "all
// partitions referencing this sort key" without a table scan.
package table
