// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	ConfigLoadFailedId Id = iota + 1
	ModsDirNotFoundId
	ArchiveUnreadableId
	UnknownModTypeId
	ModMetadataInvalidId
	MissingModMetadataId
	MissingLanguageId
	LanguageVersionMismatchId
	UnversionedProviderId
	DuplicateLanguageProviderId
	NestedArchiveLoadFailedId
	ScanFailedId
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is guidance rendered for the user.
	MarkdownMsg string

	// HttpLink is a documentation link.
	HttpLink string

	// Issue is a catalog entry.
	Issue struct {
		id       Id
		title    string
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the issue id.
func (i *Issue) Id() Id { return i.id }

// Title returns a one-line summary.
func (i *Issue) Title() string { return i.title }

// MarkdownMsg returns the raw guidance.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// DocLinks returns documentation links.
func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

// Render renders the guidance for a terminal. stylePath is a glamour style
// name ("dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id:    ConfigLoadFailedId,
		title: "configuration could not be loaded",
		mdMsg: `
# Configuration could not be loaded

The configuration file exists but is not valid.

## Things you can try
- Check the CUE syntax of the file
- Print the file that is actually used:
~~~
$ modloader config path
~~~
- Start over from the defaults:
~~~
$ modloader config dump > config.cue
~~~`,
	}

	modsDirNotFoundIssue = &Issue{
		id:    ModsDirNotFoundId,
		title: "mods directory not found",
		mdMsg: `
# Mods directory not found

A directory listed in ` + "`mods_dirs`" + ` (or passed on the command line) does not exist.

## Things you can try
- Create the directory, or remove it from ` + "`mods_dirs`" + `
- Pass the directory explicitly:
~~~
$ modloader discover ./mods
~~~`,
	}

	archiveUnreadableIssue = &Issue{
		id:    ArchiveUnreadableId,
		title: "archive could not be opened",
		mdMsg: `
# Archive could not be opened

The file has a .jar or .zip extension but is not a readable zip archive,
or its META-INF/MANIFEST.MF is malformed. The rest of the run is unaffected.

## Things you can try
- Download the file again; it is probably truncated
- Remove the file from the mods directory`,
	}

	unknownModTypeIssue = &Issue{
		id:    UnknownModTypeId,
		title: "unknown FMLModType",
		mdMsg: `
# Unknown FMLModType

The manifest attribute ` + "`FMLModType`" + ` must be one of MOD, LIBRARY,
GAMELIBRARY or LANGPROVIDER. An archive without the attribute is a MOD.`,
	}

	modMetadataInvalidIssue = &Issue{
		id:    ModMetadataInvalidId,
		title: "mod metadata could not be parsed",
		mdMsg: `
# Mod metadata could not be parsed

` + "`META-INF/neoforge.mods.toml`" + ` is not valid TOML or declares invalid values.

## Things you can try
- Check the line and column reported in the message
- Mod ids must match ` + "`^[a-z][a-z0-9_]{1,63}$`" + `
- Version ranges use Maven syntax, e.g. ` + "`[1.0,)`" + ` or ` + "`[1.0,2.0)`",
	}

	missingModMetadataIssue = &Issue{
		id:    MissingModMetadataId,
		title: "mod archive without metadata",
		mdMsg: `
# Mod archive without metadata

The archive is a MOD (the default type) but carries no
` + "`META-INF/neoforge.mods.toml`" + `.

## Things you can try
- If the archive is a plain library, mark it in its manifest:
~~~
FMLModType: LIBRARY
~~~
- Otherwise the archive is not built for this loader`,
	}

	missingLanguageIssue = &Issue{
		id:    MissingLanguageId,
		title: "required language provider is missing",
		mdMsg: `
# Required language provider is missing

The archive needs a language provider that is not installed.

## Things you can try
- Install the provider archive into one of the ` + "`language_dirs`" + `
- Register it explicitly in the configuration:
~~~cue
language_providers: [{name: "examplelang", version: "2.0"}]
~~~
- List installed providers:
~~~
$ modloader languages
~~~`,
	}

	languageVersionMismatchIssue = &Issue{
		id:    LanguageVersionMismatchId,
		title: "language provider version not accepted",
		mdMsg: `
# Language provider version not accepted

The installed language provider is outside the range the archive accepts.

## Things you can try
- Install a provider version inside the requested range
- Use a build of the mod made for your provider version
- As a last resort, accept the installed version through an override:
~~~cue
version_overrides: [{subject: "examplelang", kind: "languageloader", accept: true}]
~~~`,
	}

	unversionedProviderIssue = &Issue{
		id:    UnversionedProviderId,
		title: "language provider has no version",
		mdMsg: `
# Language provider has no version

A language provider declares no ` + "`Implementation-Version`" + ` and is not an
unpacked development directory, so its version cannot be resolved.

## Things you can try
- Rebuild the provider with an Implementation-Version manifest attribute
- Set ` + "`version`" + ` on its ` + "`language_providers`" + ` entry`,
	}

	duplicateLanguageProviderIssue = &Issue{
		id:    DuplicateLanguageProviderId,
		title: "two language providers share a name",
		mdMsg: `
# Two language providers share a name

` + "`duplicate_languages`" + ` is set to ` + "`reject`" + ` and two providers registered the same name.

## Things you can try
- Remove one of the two provider archives
- Set ` + "`duplicate_languages: \"replace\"`" + ` to keep the last one found`,
	}

	nestedArchiveLoadFailedIssue = &Issue{
		id:    NestedArchiveLoadFailedId,
		title: "embedded archive could not be loaded",
		mdMsg: `
# Embedded archive could not be loaded

An archive lists an embedded archive in ` + "`META-INF/jarjar/metadata.json`" + ` that is
missing or corrupt. The other embedded archives of that archive are skipped too.`,
	}

	scanFailedIssue = &Issue{
		id:    ScanFailedId,
		title: "archive content scan failed",
		mdMsg: `
# Archive content scan failed

The archive was identified but enumerating its classes failed. The failure is
reported every time the scan result is requested.

## Things you can try
- Check that the archive is not truncated
- Run again with ` + "`--no-scan`" + ` to check identification only`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():          configLoadFailedIssue,
		modsDirNotFoundIssue.Id():           modsDirNotFoundIssue,
		archiveUnreadableIssue.Id():         archiveUnreadableIssue,
		unknownModTypeIssue.Id():            unknownModTypeIssue,
		modMetadataInvalidIssue.Id():        modMetadataInvalidIssue,
		missingModMetadataIssue.Id():        missingModMetadataIssue,
		missingLanguageIssue.Id():           missingLanguageIssue,
		languageVersionMismatchIssue.Id():   languageVersionMismatchIssue,
		unversionedProviderIssue.Id():       unversionedProviderIssue,
		duplicateLanguageProviderIssue.Id(): duplicateLanguageProviderIssue,
		nestedArchiveLoadFailedIssue.Id():   nestedArchiveLoadFailedIssue,
		scanFailedIssue.Id():                scanFailedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
