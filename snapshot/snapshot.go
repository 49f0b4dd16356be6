// Package snapshot serializes dictionary contents to CBOR so a session's
// global bindings survive process restarts. Native operators, locked
// pointers and iterators are skipped: operators are re-registered at
// startup and the other two are inherently process-bound.
package snapshot

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/slip-lang/slip/interp"
)

const formatVersion = 1

// cborEncMode uses canonical encoding for deterministic snapshots.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireToken struct {
	Kind  uint8       `cbor:"k"`
	Exec  bool        `cbor:"x,omitempty"`
	Bool  bool        `cbor:"b,omitempty"`
	Int   int64       `cbor:"i,omitempty"`
	Float float64     `cbor:"f,omitempty"`
	Str   string      `cbor:"s,omitempty"`
	Name  string      `cbor:"n,omitempty"`
	Items []wireToken `cbor:"a,omitempty"`
	Dict  []wireEntry `cbor:"d,omitempty"`
}

type wireEntry struct {
	Name string    `cbor:"n"`
	Tok  wireToken `cbor:"t"`
}

type image struct {
	Version int         `cbor:"v"`
	Entries []wireEntry `cbor:"e"`
}

// Encode serializes d. Skipped returns the names of bindings whose values
// have no serial form.
func Encode(d *interp.Dictionary) (data []byte, skipped []string, err error) {
	img := image{Version: formatVersion}
	d.ForEach(func(n *interp.Name, t interp.Token) {
		wt, ok := encodeToken(t)
		if !ok {
			skipped = append(skipped, n.String())
			return
		}
		img.Entries = append(img.Entries, wireEntry{Name: n.String(), Tok: wt})
	})
	data, err = cborEncMode.Marshal(&img)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: marshal: %w", err)
	}
	return data, skipped, nil
}

func encodeToken(t interp.Token) (wireToken, bool) {
	d := t.Datum()
	w := wireToken{Kind: uint8(d.Kind()), Exec: t.IsExecutable()}
	switch d.Kind() {
	case interp.KindBoolean:
		w.Bool = d.Bool()
	case interp.KindInteger:
		w.Int = d.Int()
	case interp.KindFloat:
		w.Float = d.Float()
	case interp.KindString:
		w.Str = d.Str()
	case interp.KindName:
		w.Name = d.Name().String()
	case interp.KindArray:
		for _, el := range d.Array() {
			we, ok := encodeToken(el)
			if !ok {
				return wireToken{}, false
			}
			w.Items = append(w.Items, we)
		}
	case interp.KindProc:
		for _, el := range d.Proc().Body {
			we, ok := encodeToken(el)
			if !ok {
				return wireToken{}, false
			}
			w.Items = append(w.Items, we)
		}
	case interp.KindDict:
		ok := true
		d.Dict().ForEach(func(n *interp.Name, el interp.Token) {
			we, elOK := encodeToken(el)
			if !elOK {
				ok = false
				return
			}
			w.Dict = append(w.Dict, wireEntry{Name: n.String(), Tok: we})
		})
		if !ok {
			return wireToken{}, false
		}
	default:
		return wireToken{}, false
	}
	return w, true
}

// Restore decodes data and defines every entry into dst, interning names
// into names. Existing bindings with the same names are overwritten.
func Restore(data []byte, names *interp.NameTable, dst *interp.Dictionary) error {
	var img image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	if img.Version != formatVersion {
		return fmt.Errorf("snapshot: unsupported format version %d", img.Version)
	}
	for _, e := range img.Entries {
		t, err := decodeToken(e.Tok, names)
		if err != nil {
			return err
		}
		dst.Define(names.Intern(e.Name), t)
	}
	return nil
}

func decodeToken(w wireToken, names *interp.NameTable) (interp.Token, error) {
	var t interp.Token
	switch interp.Kind(w.Kind) {
	case interp.KindBoolean:
		t = interp.NewBoolean(w.Bool)
	case interp.KindInteger:
		t = interp.NewInteger(w.Int)
	case interp.KindFloat:
		t = interp.NewFloat(w.Float)
	case interp.KindString:
		t = interp.NewString(w.Str)
	case interp.KindName:
		if w.Exec {
			return interp.NewExecutableName(names.Intern(w.Name)), nil
		}
		return interp.NewLiteralName(names.Intern(w.Name)), nil
	case interp.KindArray, interp.KindProc:
		body := make([]interp.Token, 0, len(w.Items))
		for _, we := range w.Items {
			el, err := decodeToken(we, names)
			if err != nil {
				return interp.Token{}, err
			}
			body = append(body, el)
		}
		if interp.Kind(w.Kind) == interp.KindProc {
			return interp.NewProc(body), nil
		}
		return interp.NewArray(body), nil
	case interp.KindDict:
		d := interp.NewDictionary()
		for _, we := range w.Dict {
			el, err := decodeToken(we.Tok, names)
			if err != nil {
				return interp.Token{}, err
			}
			d.Define(names.Intern(we.Name), el)
		}
		return interp.NewDict(d), nil
	default:
		return interp.Token{}, fmt.Errorf("snapshot: unsupported kind %d", w.Kind)
	}
	if w.Exec {
		t = t.AsExecutable()
	}
	return t, nil
}

// Save encodes d to path. The skipped binding names are returned so the
// caller can report them.
func Save(path string, d *interp.Dictionary) ([]string, error) {
	data, skipped, err := Encode(d)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return skipped, nil
}

// Load restores the snapshot at path into dst.
func Load(path string, names *interp.NameTable, dst *interp.Dictionary) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	return Restore(data, names, dst)
}
