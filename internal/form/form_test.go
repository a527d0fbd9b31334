package form

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
)

const contactYAML = `
id: test/contact
title: Contact
fields:
  - name: code
    label: Code
    type: text
    required: true
    length: 4
    error: "Code must be 4 characters"
  - name: nickname
    label: Nickname
    type: text
    minlength: 3
    maxlength: 5
  - name: zip
    label: Zip
    type: text
    pattern: "^[0-9]+$"
`

func mustParse(t *testing.T, src string) *FormDef {
	t.Helper()
	fd, err := ParseFormDef([]byte(src), "inline")
	if err != nil {
		t.Fatalf("ParseFormDef: %v", err)
	}
	return fd
}

func TestParseFormDef_StructuralErrors(t *testing.T) {
	cases := map[string]string{
		"missing id":     "fields: [{name: a, label: A, type: text}]",
		"no fields":      "id: x",
		"missing label":  "id: x\nfields: [{name: a, type: text}]",
		"duplicate name": "id: x\nfields: [{name: a, label: A, type: text}, {name: a, label: B, type: text}]",
		"negative":       "id: x\nfields: [{name: a, label: A, type: text, minlength: -1}]",
		"min over max":   "id: x\nfields: [{name: a, label: A, type: text, minlength: 5, maxlength: 2}]",
		"length and min": "id: x\nfields: [{name: a, label: A, type: text, length: 3, minlength: 1}]",
		"bad pattern":    "id: x\nfields: [{name: a, label: A, type: text, pattern: \"(\"}]",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseFormDef([]byte(src), "case.yaml"); err == nil {
				t.Fatal("expected error")
			} else if !strings.Contains(err.Error(), "case.yaml") {
				t.Errorf("error %q does not name the source", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	fd := mustParse(t, contactYAML)

	tests := []struct {
		name   string
		values map[string]string
		want   []ErrorField
	}{
		{"valid", map[string]string{"code": "ab12", "nickname": "bob", "zip": "123"}, nil},
		{"optional empty skipped", map[string]string{"code": "ab12"}, nil},
		{"required missing", map[string]string{}, []ErrorField{{"code", "Code must be 4 characters"}}},
		{"exact length", map[string]string{"code": "abcde"}, []ErrorField{{"code", "Code must be 4 characters"}}},
		{"min", map[string]string{"code": "abcd", "nickname": "bo"}, []ErrorField{{"nickname", "Must be at least 3 characters."}}},
		{"max", map[string]string{"code": "abcd", "nickname": "bobbie"}, []ErrorField{{"nickname", "Must be at most 5 characters."}}},
		{"pattern", map[string]string{"code": "abcd", "zip": "12a"}, []ErrorField{{"zip", "Input does not match required format."}}},
		{"definition order", map[string]string{"zip": "x", "nickname": "b"}, []ErrorField{
			{"code", "Code must be 4 characters"},
			{"nickname", "Must be at least 3 characters."},
			{"zip", "Input does not match required format."},
		}},
		{"runes not bytes", map[string]string{"code": "héé!"}, nil},
		{"astral counts twice", map[string]string{"code": "😀😀"}, nil},
		{"astral too long", map[string]string{"code": "😀😀😀"}, []ErrorField{{"code", "Code must be 4 characters"}}},
		{"no trimming", map[string]string{"code": " ab "}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Validate(fd, tc.values)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Validate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	fd := mustParse(t, contactYAML)
	in := map[string]string{"code": "x"}
	first := Validate(fd, in)
	second := Validate(fd, in)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ: %v vs %v", first, second)
	}
	if len(in) != 1 || in["code"] != "x" {
		t.Errorf("input mutated: %v", in)
	}
}

func TestRegistry_RegisterFS(t *testing.T) {
	fsys := fstest.MapFS{
		"forms/contact.yaml": {Data: []byte(contactYAML)},
		"forms/README.md":    {Data: []byte("ignored")},
	}
	r := NewRegistry()
	if err := r.RegisterFS(fsys, "forms"); err != nil {
		t.Fatalf("RegisterFS: %v", err)
	}
	fd, ok := r.Get("test/contact")
	if !ok {
		t.Fatal("form not registered")
	}
	if got := fd.Names(); !reflect.DeepEqual(got, []string{"code", "nickname", "zip"}) {
		t.Errorf("Names = %v", got)
	}
	if ids := r.IDs(); len(ids) != 1 {
		t.Errorf("IDs = %v", ids)
	}
}

func TestLoadFormDef(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f.yaml")
	if err := os.WriteFile(p, []byte(contactYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	fd, err := LoadFormDef(p)
	if err != nil {
		t.Fatalf("LoadFormDef: %v", err)
	}
	if f, ok := fd.Field("nickname"); !ok || f.MaxLength != 5 {
		t.Errorf("Field(nickname) = %+v, %v", f, ok)
	}
}

func TestValidationError(t *testing.T) {
	errs := []ErrorField{{"a", "bad a"}, {"b", "bad b"}}
	err := fmt.Errorf("submit: %w", ValidationError{Fields: errs})
	if !IsValidationError(err) {
		t.Fatal("IsValidationError = false")
	}
	got, ok := AsValidationError(err)
	if !ok || len(got) != 2 {
		t.Errorf("AsValidationError = %v, %v", got, ok)
	}
	if m := FieldMessages(got); m["b"] != "bad b" {
		t.Errorf("FieldMessages = %v", m)
	}
	if FieldMessages(nil) != nil {
		t.Error("FieldMessages(nil) should be nil")
	}
}
