package actor

// PairKey packs the IDs of two bodies into an order independent key.
func PairKey(a, b *RigidBody) uint64 {
	return PackIDs(a.ID, b.ID)
}

// PackIDs packs two IDs, the smaller one in the high half.
func PackIDs(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

// UnpackIDs reverses PackIDs.
func UnpackIDs(key uint64) (uint32, uint32) {
	return uint32(key >> 32), uint32(key)
}
