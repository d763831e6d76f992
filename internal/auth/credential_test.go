package auth_test

import (
	"encoding/hex"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eslam-almahdy/RSS-1.0/internal/auth"
)

var _ = Describe("CredentialVault", func() {
	var vault *auth.CredentialVault

	BeforeEach(func() {
		vault = auth.NewCredentialVault(1000)
	})

	Describe("Hash", func() {
		It("should generate a fresh hex salt when none is supplied", func() {
			hash, salt, err := vault.Hash("s3cret-pass", "")

			Expect(err).ToNot(HaveOccurred())
			Expect(hash).ToNot(BeEmpty())
			Expect(salt).To(HaveLen(64)) // 32 random bytes, hex encoded

			_, err = hex.DecodeString(salt)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should be deterministic for the same password and salt", func() {
			hash1, salt, err := vault.Hash("s3cret-pass", "")
			Expect(err).ToNot(HaveOccurred())

			hash2, _, err := vault.Hash("s3cret-pass", salt)
			Expect(err).ToNot(HaveOccurred())
			Expect(hash2).To(Equal(hash1))
		})

		It("should produce different hashes for different salts", func() {
			hash1, _, err := vault.Hash("s3cret-pass", "")
			Expect(err).ToNot(HaveOccurred())

			hash2, _, err := vault.Hash("s3cret-pass", "")
			Expect(err).ToNot(HaveOccurred())
			Expect(hash2).ToNot(Equal(hash1))
		})
	})

	Describe("Verify", func() {
		It("should accept the original password", func() {
			hash, salt, err := vault.Hash("s3cret-pass", "")
			Expect(err).ToNot(HaveOccurred())

			Expect(vault.Verify("s3cret-pass", hash, salt)).To(BeTrue())
		})

		It("should reject a wrong password", func() {
			hash, salt, err := vault.Hash("s3cret-pass", "")
			Expect(err).ToNot(HaveOccurred())

			Expect(vault.Verify("wrong-pass", hash, salt)).To(BeFalse())
		})

		It("should reject a tampered hash", func() {
			_, salt, err := vault.Hash("s3cret-pass", "")
			Expect(err).ToNot(HaveOccurred())

			Expect(vault.Verify("s3cret-pass", "not-even-hex", salt)).To(BeFalse())
		})
	})

	Describe("NewSessionToken", func() {
		It("should produce unique URL-safe tokens", func() {
			seen := make(map[string]bool)
			for i := 0; i < 50; i++ {
				token, err := auth.NewSessionToken()
				Expect(err).ToNot(HaveOccurred())
				Expect(token).To(HaveLen(43)) // 32 bytes, unpadded base64url
				Expect(strings.ContainsAny(token, "+/=")).To(BeFalse())
				Expect(seen[token]).To(BeFalse())
				seen[token] = true
			}
		})
	})
})
