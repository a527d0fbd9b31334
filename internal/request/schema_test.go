package request

import (
	"reflect"
	"strings"
	"testing"
)

func validInput() Input {
	return Input{
		PhoneNumber:     "01712345678",
		HospitalName:    "City Hospital",
		HospitalAddress: "123 Main Street",
		Reason:          "Surgery",
		DateOfDonation:  "2024-05-01",
	}
}

func TestValidate_AllValid(t *testing.T) {
	if errs := Validate(validInput()); errs != nil {
		t.Fatalf("Validate = %v, want nil", errs)
	}
	p := BuildPayload(validInput(), "donor-42")
	if p.Input != validInput() || p.DonorID != "donor-42" {
		t.Errorf("payload = %+v", p)
	}
}

func TestValidate_EachFieldAlone(t *testing.T) {
	cases := []struct {
		field string
		set   func(*Input)
		want  string
	}{
		{FieldPhoneNumber, func(in *Input) { in.PhoneNumber = "0171234567" }, "Phone number must be 11 characters"},
		{FieldHospitalName, func(in *Input) { in.HospitalName = "Clinc" }, "Hospital name must be at least 6 characters"},
		{FieldHospitalAddress, func(in *Input) { in.HospitalAddress = "12 Rd" }, "Hospital address must be at least 6 characters"},
		{FieldReason, func(in *Input) { in.Reason = "x" }, "Reason must be valid"},
		{FieldDateOfDonation, func(in *Input) { in.DateOfDonation = "1" }, "Date must be valid"},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			in := validInput()
			tc.set(&in)
			got := Validate(in)
			want := map[string]string{tc.field: tc.want}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Validate = %v, want %v", got, want)
			}
		})
	}
}

func TestValidate_EmptyInput(t *testing.T) {
	got := Validate(Input{})
	if len(got) != 5 {
		t.Fatalf("got %d messages, want 5: %v", len(got), got)
	}
	if got[FieldPhoneNumber] != "Phone number must be 11 characters" {
		t.Errorf("phone message = %q", got[FieldPhoneNumber])
	}
}

func TestValidate_PhoneBoundary(t *testing.T) {
	for _, tc := range []struct {
		phone string
		ok    bool
	}{
		{strings.Repeat("1", 10), false},
		{strings.Repeat("1", 11), true},
		{strings.Repeat("1", 12), false},
		{"abcdefghijk", true},            // content is not checked
		{"0171234567 ", true},            // trailing space counts, no trimming
		{"০১৭১২৩৪৫৬৭৮", true},            // Bengali digits: 11 units, 33 bytes
		{strings.Repeat("😀", 11), false}, // 22 UTF-16 units
		{"😀😀😀😀😀1", true},                 // 11 UTF-16 units
	} {
		in := validInput()
		in.PhoneNumber = tc.phone
		_, bad := Validate(in)[FieldPhoneNumber]
		if bad == tc.ok {
			t.Errorf("phone %q: valid=%v, want %v", tc.phone, !bad, tc.ok)
		}
	}
}

func TestValidate_Idempotent(t *testing.T) {
	in := validInput()
	in.Reason = "?"
	first, second := Validate(in), Validate(in)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ: %v vs %v", first, second)
	}
	if in.Reason != "?" {
		t.Error("input mutated")
	}
}

func TestSchema_Registered(t *testing.T) {
	fd := Schema()
	if fd.ID != FormID || len(fd.Fields) != 5 {
		t.Fatalf("schema = %+v", fd)
	}
	want := []string{FieldPhoneNumber, FieldHospitalName, FieldHospitalAddress, FieldReason, FieldDateOfDonation}
	if got := fd.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v", got)
	}
}
