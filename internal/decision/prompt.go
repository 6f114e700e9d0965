package decision

import (
	"fmt"
	"strings"
	"time"

	"bizgraph/internal/llm"
)

const cypherRules = `IMPORTANT: NEVER use any APOC procedures or functions in Cypher. If you use any APOC function, it will cause an error. Use only standard Cypher and built-in functions. For unique IDs, use randomUUID(). Never use apoc.create.uuid().
IMPORTANT: For any entity with a name (vendor, product, customer), always use a 'normalized_name' property set to toLower(trim(name)) for all MERGE and MATCH operations, and also store the original 'name' property for display.`

const decisionSystemPrompt = `You are an autonomous assistant for a business tracking system. Given a user message and conversation context, decide what to do and return a JSON object with:
- "intent": one of "graph_query", "add_product", "log_transaction", "chat", "qa"
- "entities": an object with any of "product", "vendor", "customer", "amount", "quantity", "transaction_type", "description", "date" that the message mentions
- "query": for graph_query, add_product and log_transaction, the Cypher query to execute
- "response": for chat and qa, a helpful, friendly and context-aware reply to the user

Intents:
- graph_query: the user asks about business data such as products, vendors, customers or transactions
- add_product: the user wants to add or create a new product
- log_transaction: the user mentions buying, selling or a commission
- chat: general conversation, greetings or casual chat
- qa: business questions that need analysis of stored data

If the user wants to add, update or query the business graph, generate the Cypher query yourself using the schema below.`

// BuildDecisionPrompt assembles the unified prompt: one model call that
// classifies the message, extracts entities, writes the Cypher and, for chat
// intents, the final reply.
func BuildDecisionPrompt(schema, context, message string, today time.Time) []llm.Message {
	var system strings.Builder
	system.WriteString(decisionSystemPrompt)
	system.WriteString("\n\n")
	system.WriteString(strings.TrimSpace(schema))
	system.WriteString("\n\n")
	system.WriteString(cypherRules)

	var user strings.Builder
	fmt.Fprintf(&user, "Today's date is %s. Use it to resolve relative dates like \"yesterday\".\n", today.Format("2006-01-02"))
	if context != "" {
		fmt.Fprintf(&user, "\nRecent conversation:\n%s\n", context)
	}
	fmt.Fprintf(&user, "\nMessage: %q\n", message)
	user.WriteString("Return only the JSON object.")

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system.String()},
		{Role: llm.RoleUser, Content: user.String()},
	}
}

const intentSystemPrompt = `You are an intent detection agent for a business tracking system. Analyze the user message and determine the appropriate action.

Available intents:
- graph_query: when the user asks about business data, products, vendors or transactions
- add_product: when the user wants to add or create a new product
- log_transaction: when the user mentions buying, selling or a business transaction
- chat: general conversation, greetings or casual chat
- qa: business questions that need data analysis

Return a JSON object with:
{
    "intent": "one of the above intents",
    "entities": {
        "product": "product name if mentioned",
        "vendor": "vendor name if mentioned",
        "customer": "customer name if mentioned",
        "amount": "amount if mentioned",
        "transaction_type": "purchase/sale/commission if mentioned"
    }
}

Consider conversation context when determining intent.`

// BuildIntentPrompt is the simpler classification used by the fallback path.
// No schema, no query generation, just the intent tag and entities.
func BuildIntentPrompt(context, message string) []llm.Message {
	var user strings.Builder
	if context != "" {
		fmt.Fprintf(&user, "Recent conversation:\n%s\n\n", context)
	}
	fmt.Fprintf(&user, "Message: %q\n", message)
	user.WriteString("Return only the JSON object.")

	return []llm.Message{
		{Role: llm.RoleSystem, Content: intentSystemPrompt},
		{Role: llm.RoleUser, Content: user.String()},
	}
}

// BuildCypherPrompt asks for a standalone Cypher query for the fallback
// graph_query route.
func BuildCypherPrompt(schema, message string) []llm.Message {
	var user strings.Builder
	user.WriteString("Given the following user request and the Neo4j schema, generate a Cypher query that fulfills the request. Return only the Cypher query in a Markdown code block.\n")
	user.WriteString(strings.TrimSpace(schema))
	user.WriteString("\n\n")
	user.WriteString(cypherRules)
	fmt.Fprintf(&user, "\n\nUser request: %q", message)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a business graph database assistant. Generate Cypher queries only."},
		{Role: llm.RoleUser, Content: user.String()},
	}
}

const chatSystemPrompt = `You are a helpful business assistant. Generate a friendly, contextual response. Consider the conversation history and provide helpful information. Use Telegram Markdown formatting for better presentation. The output should be very concise, within 3-4 lines max; only go beyond that if absolutely necessary.`

// BuildChatPrompt phrases a plain conversational reply, seeded with the
// short history summary.
func BuildChatPrompt(summary, message string) []llm.Message {
	var user strings.Builder
	if summary != "" {
		fmt.Fprintf(&user, "Recent conversation:\n%s\n\n", summary)
	}
	user.WriteString(message)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: chatSystemPrompt},
		{Role: llm.RoleUser, Content: user.String()},
	}
}
