package protocol

import "testing"

func TestTypeOfRoundTrip(t *testing.T) {
	for typ, name := range typeNames {
		got, ok := TypeOf(name)
		if !ok {
			t.Errorf("TypeOf(%q) not found", name)
			continue
		}
		if got != typ {
			t.Errorf("TypeOf(%q) = %v, want %v", name, got, typ)
		}
		if typ.String() != name {
			t.Errorf("%v.String() = %q, want %q", typ, typ.String(), name)
		}
	}
}

func TestTypeOfUnknown(t *testing.T) {
	if _, ok := TypeOf("no_such_frame"); ok {
		t.Fatal("unknown discriminator resolved")
	}
	if Invalid.String() != "invalid_type" {
		t.Fatalf("Invalid.String() = %q", Invalid.String())
	}
}

func TestDiscriminate(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Type
		ok   bool
	}{
		{"text frame", `{"type":"text","message":"hi"}`, Text, true},
		{"login frame", `{"type":"login_request"}`, LoginRequest, true},
		{"unknown type", `{"type":"bogus"}`, Invalid, false},
		{"missing type", `{"message":"hi"}`, Invalid, false},
		{"not json", `hello there`, Invalid, false},
		{"numeric type", `{"type":7}`, Invalid, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := Discriminate([]byte(tt.data))
			if ok != tt.ok || got != tt.want {
				t.Fatalf("Discriminate(%s) = %v, %v; want %v, %v", tt.data, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestAuthExempt(t *testing.T) {
	exempt := []Type{SignUp, LoginRequest, RetrieveQuestion, UpdatePassword, NewPasswordRequest}
	for _, typ := range exempt {
		if !typ.AuthExempt() {
			t.Errorf("%v should be accepted before login", typ)
		}
	}
	for _, typ := range []Type{Text, LookupFriend, NewGroup, DeleteAccount, ProfileImage} {
		if typ.AuthExempt() {
			t.Errorf("%v should require login", typ)
		}
	}
}
