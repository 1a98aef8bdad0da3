package application

import "strings"

// AssistantService answers platform questions by keyword matching over a
// static knowledge base. It is intentionally not a language model: every
// reply is canned, and unmatched questions get a topic list.
type AssistantService struct{}

// NewAssistantService creates an AssistantService.
func NewAssistantService() *AssistantService {
	return &AssistantService{}
}

// knowledgeEntry pairs a canonical question with its canned markdown answer.
type knowledgeEntry struct {
	key    string
	answer string
}

// Entries are matched by substring containment in both directions, so short
// queries like "revoke" hit the full canonical question.
var knowledgeBase = []knowledgeEntry{
	{
		key: "how do i issue a credential",
		answer: `To issue a credential:

1. Be an authorized institution
2. Open the institution dashboard
3. Fill in the student details: name, wallet address, degree, institution name, and graduation year
4. Upload the credential document (PDF, PNG, or JPG)
5. Issue the credential and approve the transaction in your wallet

The credential is minted as a soulbound token on the testnet and sent to the student's wallet.`,
	},
	{
		key: "how do students verify their credentials",
		answer: `Students can verify and share their credentials in several ways:

1. View credentials in their student wallet
2. Generate a QR code for instant verification
3. Create time-limited share links with expiration dates
4. Share credentials with specific universities or employers

Verifiers scan the QR code or open the share link to verify the credential without contacting the institution.`,
	},
	{
		key: "what is a soulbound token",
		answer: `A soulbound token (SBT) is a non-transferable token representing an achievement or credential:

- Cannot be transferred or sold
- Permanently bound to the recipient's wallet
- Can be revoked by the issuer if needed
- Stored on chain for permanent verification

Degrees should not change hands, which is exactly what soulbound tokens enforce.`,
	},
	{
		key: "how do i revoke a credential",
		answer: `To revoke a credential:

1. Open the institution dashboard
2. Find the credential by token id or student address
3. Confirm the revocation and approve the transaction

Once revoked, the credential shows as **revoked** in all verifications. Revocation is irreversible.`,
	},
	{
		key: "what is the verification process",
		answer: `Verification is instant and decentralized:

1. The verifier receives a QR code or share link from the student
2. The system fetches the credential and its revocation status
3. It displays institution, degree, issue date, and the document link
4. Every verification is recorded in the audit trail

No need to contact the institution.`,
	},
	{
		key: "how do i connect my wallet",
		answer: `To connect your wallet:

1. Install a browser wallet extension
2. Create or import a wallet
3. Use the connect button on the platform and approve the connection
4. The platform switches to the Sepolia testnet automatically

You need Sepolia ETH for transactions; testnet faucets provide it for free.`,
	},
	{
		key: "what are pricing plans",
		answer: `Pricing by user type:

- Institutions: Basic $99.99/month (100 credentials), Pro $299.99/month (500), Enterprise $999.99/month (unlimited)
- Employers: Basic $49.99/month (50 verifications), Pro $149.99/month (200)
- Students: free, unlimited`,
	},
	{
		key: "how does blockchain security work",
		answer: `Several layers protect issued credentials:

1. A public testnet ledger records issuance
2. Soulbound tokens make credentials non-transferable
3. Contract access control limits issuance to authorized institutions
4. Documents live in content-addressed storage, referenced by hash
5. Every action lands in an append-only audit trail

Once issued, credentials cannot be forged or silently altered.`,
	},
	{
		key: "what is ipfs",
		answer: `IPFS is a decentralized file storage protocol:

- Files are referenced by the hash of their content
- Stored documents are immutable and permanently addressable
- The registry stores only the hash, never the document bytes

Credential documents (PDFs, certificates) live there, keeping the registry itself lightweight.`,
	},
	{
		key: "how do i get testnet eth",
		answer: `To get Sepolia testnet ETH:

1. Copy your wallet address
2. Visit a Sepolia faucet and paste the address
3. Wait a few minutes for confirmation

Testnet ETH is free and has no real-world value.`,
	},
}

// fallbackRule maps loose keywords to a knowledge base key.
type fallbackRule struct {
	keywords []string
	key      string
}

var fallbackRules = []fallbackRule{
	{[]string{"credential", "issue"}, "how do i issue a credential"},
	{[]string{"verify"}, "how do students verify their credentials"},
	{[]string{"verification"}, "how do students verify their credentials"},
	{[]string{"soulbound"}, "what is a soulbound token"},
	{[]string{"sbt"}, "what is a soulbound token"},
	{[]string{"revoke"}, "how do i revoke a credential"},
	{[]string{"cancel"}, "how do i revoke a credential"},
	{[]string{"wallet"}, "how do i connect my wallet"},
	{[]string{"metamask"}, "how do i connect my wallet"},
	{[]string{"price"}, "what are pricing plans"},
	{[]string{"cost"}, "what are pricing plans"},
	{[]string{"plan"}, "what are pricing plans"},
	{[]string{"security"}, "how does blockchain security work"},
	{[]string{"safe"}, "how does blockchain security work"},
	{[]string{"ipfs"}, "what is ipfs"},
	{[]string{"testnet"}, "how do i get testnet eth"},
	{[]string{"sepolia"}, "how do i get testnet eth"},
	{[]string{"eth"}, "how do i get testnet eth"},
}

const fallbackReply = `I'm not sure about that specific question. I can help you with:

- Issuing credentials
- Verifying credentials
- Soulbound tokens
- Revoking credentials
- Wallet connection
- Pricing plans
- Blockchain security
- IPFS and document storage
- Getting testnet ETH

Please ask me about any of these topics!`

// Reply returns the best canned answer for the query, in markdown.
func (s *AssistantService) Reply(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))

	for _, entry := range knowledgeBase {
		if strings.Contains(normalized, entry.key) || strings.Contains(entry.key, normalized) {
			return entry.answer
		}
	}

	for _, rule := range fallbackRules {
		if matchesAll(normalized, rule.keywords) {
			return lookupAnswer(rule.key)
		}
	}

	return fallbackReply
}

// Suggestions returns the quick-start questions shown in an empty chat.
func (s *AssistantService) Suggestions() []string {
	return []string{
		"How do I issue a credential?",
		"How do students verify credentials?",
		"What is a soulbound token?",
		"How do I revoke a credential?",
		"What are the pricing plans?",
		"How does blockchain security work?",
	}
}

func matchesAll(query string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(query, kw) {
			return false
		}
	}
	return true
}

func lookupAnswer(key string) string {
	for _, entry := range knowledgeBase {
		if entry.key == key {
			return entry.answer
		}
	}
	return fallbackReply
}
