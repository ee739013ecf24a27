// ABOUTME: Help text listing the console commands
// ABOUTME: Kept in sync with the intent rule table

package console

// HelpText is printed for the help intent.
const HelpText = `Commands:
  plan <text>          Add text to the spec draft
  plan architecture    Start a draft from a template (architecture, product, requirements)
  clear template       Remove the draft template
  lock spec            Lock the draft and submit it to the governor
  build                Switch to BUILD mode (requires a locked spec)
  show spec            Show the current spec draft
  show diff            Show pending commit state
  apply                Proceed with the pending commit
  rollback             Revise the pending commit
  why                  Show why something is blocked
  status               Show governor status
  sessions             List sessions
  switch <#N|id|name>  Switch to a session
  delete session <id>  Delete a session
  help                 Show this help
Anything else is sent to the assistant.`
