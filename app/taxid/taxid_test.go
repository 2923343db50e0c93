package taxid

import "testing"

func TestNormalizeStripsNonDigits(t *testing.T) {
	cases := map[string]string{
		"111.444.777-35":     "11144477735",
		"11.222.333/0001-81": "11222333000181",
		"  297 ":             "297",
		"abc":                "",
		"":                   "",
	}
	for raw, want := range cases {
		if got := Normalize(raw); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestIsValidCPF(t *testing.T) {
	valid := []string{
		"11144477735",
		"52998224725",
	}
	for _, cpf := range valid {
		if !IsValidCPF(cpf) {
			t.Errorf("expected %q to be a valid CPF", cpf)
		}
	}

	invalid := []string{
		"",
		"1114447773",    // 10 digits
		"111444777350",  // 12 digits
		"11111111111",   // all identical
		"00000000000",   // all identical
		"11144477734",   // second check digit mutated
		"11144477835",   // body digit mutated
		"1114447773a",   // non-digit
	}
	for _, cpf := range invalid {
		if IsValidCPF(cpf) {
			t.Errorf("expected %q to be an invalid CPF", cpf)
		}
	}
}

func TestIsValidCPFDetectsSingleDigitMutations(t *testing.T) {
	const cpf = "11144477735"
	for i := 0; i < len(cpf); i++ {
		mutated := []byte(cpf)
		mutated[i] = '0' + byte((int(cpf[i]-'0')+1)%10)
		if IsValidCPF(string(mutated)) {
			t.Errorf("mutation at position %d (%s) unexpectedly valid", i, mutated)
		}
	}
}

func TestIsValidCNPJ(t *testing.T) {
	valid := []string{
		"11222333000181",
		"11444777000161",
	}
	for _, cnpj := range valid {
		if !IsValidCNPJ(cnpj) {
			t.Errorf("expected %q to be a valid CNPJ", cnpj)
		}
	}

	invalid := []string{
		"",
		"1122233300018",   // 13 digits
		"11111111111111",  // all identical
		"11222333000182",  // check digit mutated
		"11222433000181",  // body digit mutated
	}
	for _, cnpj := range invalid {
		if IsValidCNPJ(cnpj) {
			t.Errorf("expected %q to be an invalid CNPJ", cnpj)
		}
	}
}

func TestValidateBranchesOnLength(t *testing.T) {
	digits, err := Validate("111.444.777-35")
	if err != nil {
		t.Fatalf("expected valid CPF, got %v", err)
	}
	if digits != "11144477735" {
		t.Fatalf("expected normalized digits, got %q", digits)
	}

	digits, err = Validate("11.222.333/0001-81")
	if err != nil {
		t.Fatalf("expected valid CNPJ, got %v", err)
	}
	if digits != "11222333000181" {
		t.Fatalf("expected normalized digits, got %q", digits)
	}

	if _, err := Validate("111.111.111-11"); err == nil {
		t.Fatal("expected all-identical CPF to fail")
	}
	if _, err := Validate("12345"); err == nil {
		t.Fatal("expected 5-digit string to fail")
	}
	if _, err := Validate(""); err == nil {
		t.Fatal("expected empty string to fail")
	}
}
