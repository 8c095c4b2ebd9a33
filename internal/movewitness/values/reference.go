package values

// Reference is the recorder's stable coordinate for a value that a runtime
// reference points to: a frame, a local slot within that frame, and a
// sub-index path locating a position within the local's flattened value.
// It replaces a process address with something that survives serialization.
type Reference struct {
	FrameIndex int      `json:"frame_index"`
	LocalIndex int      `json:"local_index"`
	SubIndex   SubIndex `json:"sub_index"`
}

func NewReference(frameIndex, localIndex int, subIndex SubIndex) Reference {
	return Reference{FrameIndex: frameIndex, LocalIndex: localIndex, SubIndex: subIndex}
}

// RefChild returns the reference to child index `child` of the aggregate
// this reference points at. A trailing zero slot marks "container recorded,
// child not yet specific" (see VisitContainer), so we trim it away before
// appending the real child index.
func (r Reference) RefChild(child int) Reference {
	r.SubIndex = r.SubIndex.Trimmed().Push(child)
	return r
}
