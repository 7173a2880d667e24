// Commitcraft writes commit messages for staged changes and reviews code
// with LLM providers (Claude, OpenAI-compatible APIs, or a local Ollama).
//
// Usage:
//
//	commitcraft commit                    # generate, review, and commit
//	commitcraft commit --dry-run          # print a message, commit nothing
//	commitcraft review changes            # review uncommitted changes
//	commitcraft review commit <hash>      # review a specific commit
//	commitcraft review range main..HEAD   # review a revision range
//	commitcraft review file <path>        # review a whole file
//	commitcraft config init               # write a default config file
package main
