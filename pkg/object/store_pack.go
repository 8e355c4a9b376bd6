package object

// IndexPack decodes a pack stream and writes every contained object to the
// store as a loose object. Returns the hash and type of each object the
// pack carried, deltas included.
//
// Decode runs in two passes, mirroring the pack's own structure:
//
//  1. Scan (ReadPack): every entry header and zlib stream is walked
//     sequentially; non-delta payloads come out ready to hash.
//  2. Resolve: deltas are applied against their bases. Ofs-delta bases are
//     located by entry offset and are strictly backward, so in-order
//     processing resolves chains of any depth. Ref-delta bases are located
//     by hash and may name an entry that is itself a delta resolved later;
//     resolution iterates to a fixpoint and anything still pending after a
//     pass with no progress is a missing or cyclic base.
func (s *Store) IndexPack(data []byte) (map[Hash]ObjectType, error) {
	pf, err := ReadPack(data)
	if err != nil {
		return nil, err
	}
	return s.indexScanned(pf)
}

func (s *Store) indexScanned(pf *PackFile) (map[Hash]ObjectType, error) {
	n := len(pf.Entries)
	resolvedType := make([]ObjectType, n)
	resolvedData := make([][]byte, n)
	byOffset := make(map[uint64]int, n)
	byHash := make(map[Hash]int, n)

	var pending []int
	for i, e := range pf.Entries {
		byOffset[e.Offset] = i
		if e.Type.IsDelta() {
			pending = append(pending, i)
			continue
		}
		objType, ok := e.Type.ObjectTypeFor()
		if !ok {
			return nil, packErrorf(i, "unexpected pack type %s", e.Type)
		}
		resolvedType[i] = objType
		resolvedData[i] = e.Data
		byHash[HashObject(objType, e.Data)] = i
	}

	for len(pending) > 0 {
		progress := false
		var next []int
		for _, i := range pending {
			e := pf.Entries[i]

			var baseIdx int
			switch e.Type {
			case PackOfsDelta:
				bi, ok := byOffset[e.BaseOffset]
				if !ok {
					return nil, packErrorf(i, "ofs-delta base offset %d is not an object boundary", e.BaseOffset)
				}
				baseIdx = bi
			case PackRefDelta:
				bi, ok := byHash[e.BaseHash]
				if !ok {
					// The base may itself be an unresolved delta; retry
					// next round.
					next = append(next, i)
					continue
				}
				baseIdx = bi
			}

			if resolvedData[baseIdx] == nil {
				next = append(next, i)
				continue
			}

			out, err := ApplyDelta(resolvedData[baseIdx], e.Data)
			if err != nil {
				return nil, packErrorf(i, "apply delta: %v", err)
			}
			resolvedType[i] = resolvedType[baseIdx]
			resolvedData[i] = out
			byHash[HashObject(resolvedType[i], out)] = i
			progress = true
		}
		if !progress {
			i := next[0]
			e := pf.Entries[i]
			if e.Type == PackRefDelta {
				return nil, packErrorf(i, "ref-delta base %s not found in pack", e.BaseHash)
			}
			return nil, packErrorf(i, "ofs-delta base at offset %d could not be resolved", e.BaseOffset)
		}
		pending = next
	}

	out := make(map[Hash]ObjectType, n)
	for i := range pf.Entries {
		h, err := s.Write(resolvedType[i], resolvedData[i])
		if err != nil {
			return nil, err
		}
		out[h] = resolvedType[i]
	}
	return out, nil
}
