// Package harness runs declarative UI scenarios against a driver.Driver.
//
// # Scenario Format
//
// A suite file holds shared variables, setup and teardown, and a list of
// independent scenarios:
//
//	name: form_authentication
//	vars:
//	  username: tomsmith
//	setup:
//	  - navigate: /
//	  - click: { link_text: Form Authentication }
//	scenarios:
//	  - name: successful_login
//	    steps:
//	      - type: { locator: { id: username }, text: "${username}" }
//	      - click: "css=#login > button"
//	      - assert_contains: { actual: url, expected: /secure }
//	      - wait_visible: { locator: { class_name: flash.success }, timeout: 5s }
//	      - assert_prefix:
//	          actual: { text: { class_name: flash.success } }
//	          expected: You logged into a secure area!
//
// Files ending in .cue are evaluated with CUE and exported before
// decoding, so the same structure can be written with CUE references and
// constraints.
//
// ${name} expands suite vars, overrides passed to LoadSuite, and the
// built-in ${base_url}. Undefined variables are load errors. Relative
// navigate targets resolve against base_url.
//
// # Step Kinds
//
//   - navigate: load a URL
//   - click, clear: act on the first element matching a locator
//   - type: send text to an element
//   - wait_visible: explicit wait with a mandatory positive timeout
//   - assert_equal, assert_contains, assert_prefix: string probes
//   - assert_true: boolean probe ({visible: LOC})
//   - assert_list_equal: list probe ({texts: LOC}), order-sensitive
//
// # Lifecycle
//
// Each scenario owns one driver session:
//
//	Pending -> SettingUp -> Running -> TearingDown -> Completed
//
// Setup opens the session and runs suite then scenario setup steps. If any
// of that fails, the scenario records a single failure at SetupStepIndex
// and goes straight to teardown. While running, the first failing step
// (assertion or driver error) is recorded and halts the scenario; the
// remaining steps are counted as skipped. Teardown runs scenario then
// suite teardown steps and closes the session exactly once; its failures
// become warnings.
//
// Scenarios share nothing, so Runner.Run may execute them concurrently.
// Results are always reported in declared order.
package harness
