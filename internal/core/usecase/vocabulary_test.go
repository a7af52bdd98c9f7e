package usecase

import "testing"

func TestVocabularyWholeWordMatching(t *testing.T) {
	m := newVocabularyMatcher(DefaultVocabulary())

	if got := m.matchExtensions("field 'pdfs_enabled' is false"); len(got) != 0 {
		t.Fatalf("substring inside a word must not match, got %v", got)
	}
	if got := m.matchExtensions("Only PDF files are accepted."); len(got) != 1 || got[0] != "pdf" {
		t.Fatalf("expected [pdf], got %v", got)
	}
}

func TestVocabularyMultiWordPhrases(t *testing.T) {
	m := newVocabularyMatcher(DefaultVocabulary())

	got := m.matchTypes("please attach a bank statement for the last 3 months")
	if len(got) != 1 || got[0] != "bank statement" {
		t.Fatalf("expected [bank statement], got %v", got)
	}
}

func TestVocabularyDeterministicOrder(t *testing.T) {
	m := newVocabularyMatcher(DefaultVocabulary())

	first := m.matchTypes("passport and invoice and receipt")
	second := m.matchTypes("passport and invoice and receipt")
	if len(first) != 3 {
		t.Fatalf("expected 3 matches, got %v", first)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("match order not deterministic: %v vs %v", first, second)
		}
	}
}
