package dialog

import "testing"

func TestExtractName(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"John Smith", "John Smith", false},
		{"my name is Sarah O'Brien", "Sarah O'Brien", false},
		{"it's Dave", "Dave", false},
		{"Anna-Maria de la Cruz", "Anna-Maria de la Cruz", false},
		{"", "", true},
		{"123 Fake", "", true},
		{"my email is john@example.com", "", true},
		{"one two three four five six", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExtractName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractEmail(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"john.smith@example.com", "john.smith@example.com", false},
		{"sure, john at example dot com", "john@example.com", false},
		{"J O H N at G M A I L dot com", "john@gmail.com", false},
		{"john@example", "", true}, // no TLD
		{"not an email at all", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractEmail(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExtractEmail(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ExtractEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractAddress(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"42 Wattle Street, Blacktown NSW 2148", false},
		{"7 Ferndale Rd Normanhurst 2076", false},
		{"Unit 3, 15 The Parade, Penrith 2750", false},
		{"123 Main St", true}, // no postcode
		{"Blacktown 2148", true},
		{"", true},
	}
	for _, tt := range tests {
		_, err := ExtractAddress(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExtractAddress(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestExtractAddressReturnsVerbatim(t *testing.T) {
	input := "42 Wattle Street, Blacktown NSW 2148"
	got, err := ExtractAddress(input)
	if err != nil {
		t.Fatalf("ExtractAddress() error = %v", err)
	}
	if got != input {
		t.Errorf("ExtractAddress() = %q, want original text preserved", got)
	}
}

func TestExtractPhone(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"0412 345 678", "0412345678", false},
		{"+61 412 345 678", "+61412345678", false},
		{"you can call 02 9876 5432", "0298765432", false},
		{"no number here", "", true},
		{"12345", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractPhone(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExtractPhone(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ExtractPhone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
