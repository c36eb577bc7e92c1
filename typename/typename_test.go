package typename

import "testing"

func TestInsert(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "shorthand",
			in:   "{user{id}}",
			want: "{user{ __typename id}}",
		},
		{
			name: "named_query_nested",
			in:   "query Q { user(id: 1) { id friends { name } } }",
			want: "query Q { user(id: 1) { __typename  id friends { __typename  name } } }",
		},
		{
			name: "mutation_without_selection",
			in:   "mutation { deleteUser(id: 1) }",
			want: "mutation { deleteUser(id: 1) }",
		},
		{
			name: "input_object_braces_untouched",
			in:   `mutation { addUser(input: {name: "a"}) { id } }`,
			want: `mutation { addUser(input: {name: "a"}) { __typename  id } }`,
		},
		{
			name: "braces_in_strings_and_comments",
			in:   "{ a(s: \"{x}\") { b } # {c}\n}",
			want: "{ a(s: \"{x}\") { __typename  b } # {c}\n}",
		},
		{
			name: "block_string",
			in:   `{ a(s: """ { "q" } """) { b } }`,
			want: `{ a(s: """ { "q" } """) { __typename  b } }`,
		},
		{
			name: "already_present",
			in:   "{ user { __typename id } }",
			want: "{ user { __typename id } }",
		},
		{
			name: "prefix_of_other_field",
			in:   "{ user { __typenameX } }",
			want: "{ user { __typename  __typenameX } }",
		},
		{
			name: "fragment_definition",
			in:   "query { ...F } fragment F on User { id }",
			want: "query { ...F } fragment F on User { __typename  id }",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Insert(tc.in); got != tc.want {
				t.Fatalf("Insert(%q)\n got: %q\nwant: %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	for _, q := range []string{
		"{user{id}}",
		"query { a { b { c } } }",
		"query { ...F } fragment F on User { id }",
	} {
		once := Insert(q)
		if twice := Insert(once); twice != once {
			t.Fatalf("not idempotent for %q:\n once: %q\ntwice: %q", q, once, twice)
		}
	}
}
