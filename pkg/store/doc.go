/*
Package store implements arachne's durable, multi-site, time-priority
task store on top of go.etcd.io/bbolt.

# Layout

A single bbolt file holds one bucket per registered site (named
"task:<site_id>") plus one "sites" bucket. Every bucket is keyed by a
priority-seq composite: a fixed-width zero-padded decimal encoding of an
absolute wall-clock second, followed by a bucket-local sequence number
from bbolt's own NextSequence. bbolt buckets, like the B+trees they
implement, reject duplicate keys — appending the sequence number gives
duplicate-priority entries their own keys while preserving both numeric
priority order and insertion order, the multimap semantics the store
needs to provide (see DESIGN.md for why a composite key stands in for a
native multimap).

# Transactions

Store exposes both single-call convenience methods (PutTask, PeekHead,
...) for simple callers, and a Tx type bound to one bbolt transaction
for composing several operations atomically — the scheduler's dispatch
decision and its outcome-reporting methods both need several bucket
mutations to commit together, which a single scheduler decision
requires.
*/
package store
