// Rotation: creating a successor file whose hash-table bucket counts
// are retuned from the predecessor's observed utilization, rather than
// always reusing the same defaults. A file that filled its data hash
// table past 75% gets double the buckets next time; one that stayed
// under 25% (and had more than the minimum bucket count) gets half.
//
// Grounded on original_source/src/crates/journal-core/src/file/file.rs's
// with_optimized_buckets (SPEC_FULL.md supplemented feature #2 — only
// summarized in one paragraph by the distilled spec).
package journal

const minRetunedBuckets = 4096

// nextPowerOfTwo rounds n up to the nearest power of two, at least 1.
func nextPowerOfTwo(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// optimizedBucketCount applies the retuning thresholds to one hash
// table's current bucket count and utilization ratio.
func optimizedBucketCount(current uint64, utilization float64) uint64 {
	switch {
	case utilization > 0.75:
		return nextPowerOfTwo(current * 2)
	case utilization < 0.25 && current > minRetunedBuckets:
		return nextPowerOfTwo(current / 2)
	default:
		return current
	}
}

// RotateOptions configures successor-file creation.
type RotateOptions struct {
	Path string
}

// Rotate closes the writer on the current file (if attached) and
// creates a new, empty successor file at opts.Path whose bucket counts
// are retuned from the current file's utilization. The successor
// shares the predecessor's keyed-hash setting, since mixing hash
// disciplines across a rotated file set would break the query planner's
// ability to merge them. The compact flag is not carried over: like
// every file Create makes, the successor uses regular offsets.
func Rotate(w *Writer, opts RotateOptions) (*JournalFile, error) {
	jf := w.jf
	util := jf.BucketUtilization()

	successorOpts := jf.opts
	successorOpts.DataHashBuckets = optimizedBucketCount(util.DataBuckets, util.DataUtilization())
	successorOpts.FieldHashBuckets = optimizedBucketCount(util.FieldBuckets, util.FieldUtilization())
	successorOpts.KeyedHash = jf.header.KeyedHash()

	if err := w.Detach(); err != nil {
		return nil, err
	}

	successor, err := Create(opts.Path, successorOpts)
	if err != nil {
		return nil, err
	}
	copy(successor.header.MachineID[:], jf.header.MachineID[:])
	copy(successor.header.SeqnumID[:], jf.header.SeqnumID[:])
	successor.header.HeadEntrySeqnum = jf.header.TailEntrySeqnum
	successor.header.TailEntrySeqnum = jf.header.TailEntrySeqnum
	if err := successor.CommitHeader(); err != nil {
		successor.Close()
		return nil, err
	}
	return successor, nil
}
