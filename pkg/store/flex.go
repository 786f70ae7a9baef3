package store

import (
	"encoding/json"
	"sort"
	"strconv"
)

// FlexStrings is an ordered string list that tolerates both encodings the
// scanning device produces for collections: a plain JSON array, or a sparse
// object keyed by integer index ({"0": "...", "2": "..."}). Marshalling
// always emits the array form.
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*f = arr
		return nil
	}

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	type entry struct {
		idx int
		val string
	}
	entries := make([]entry, 0, len(obj))
	for key, val := range obj {
		idx, err := strconv.Atoi(key)
		if err != nil {
			// non-numeric keys are producer noise, keep stable order at the end
			idx = int(^uint(0) >> 1)
		}
		entries = append(entries, entry{idx: idx, val: val})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.val)
	}
	*f = out
	return nil
}

func (f FlexStrings) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(f))
}
