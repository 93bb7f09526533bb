// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/toolman/internal/meta"
)

const bashCompletionScript = `# bash completion for toolman
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_toolman()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "cache completion convert diff inspect ls query --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--attrs -a --color -c --filter -f --output -o --sort -s --titles -t --tldr --schema"

    case "$cmd" in
        cache)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "ls purge" -- "$cur") )
                return 0
            fi
            local opts="$common --hours"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        convert)
            local opts="--chw --hwc --indent --indices --path --quality -q --tldr"
            ;;
        diff)
            local opts="--color -c --exit-code --format --output -o --tldr"
            if [[ "$prev" == "--format" ]]; then
                COMPREPLY=( $(compgen -W "ascii delta" -- "$cur") )
                return 0
            fi
            ;;
        inspect)
            local opts="$common --digest -d"
            ;;
        ls)
            local opts="$common --all --chop --deep --digest --recursive -r"
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    COMPREPLY=( $(compgen -f -- "$cur") )
    return 0
}

complete -o filenames -F _toolman toolman
`

const zshCompletionScript = `#compdef toolman

_toolman() {
  local -a cmds
  cmds=(
    'cache:manage the toolman cache'
    'completion:generate shell completion script'
    'convert:convert an artifact between formats'
    'diff:structural diff of two json or yaml artifacts'
    'inspect:describe stored artifacts'
    'ls:list artifacts in a directory'
    'query:select part of a json or yaml artifact'
  )

  local -a common
  common=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--schema[dump schema]'
  '--tldr[show tldr page]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'toolman commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    cache)
      if (( CURRENT == 3 )); then
        _values 'cache commands' ls purge
        return
      fi
      _arguments -C $common '--hours[age in hours]:hours'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    convert)
      _arguments -C \
        '--chw[channel axis first]' \
        '--hwc[channel axis last]' \
        '--indent[json indent]:spaces' \
        '--indices[load palette indices]' \
        '--path[gjson path]:path' \
        '(-q --quality)'{-q,--quality}'[jpeg quality]:quality' \
        '--tldr[show tldr page]' \
        '1:source:_files' \
        '2:destination:_files'
      ;;
    diff)
      _arguments -C \
        '(-c --color)'{-c,--color}'[enable colored text]' \
        '--exit-code[exit non-zero on differences]' \
        '--format[diff rendering]:format:(ascii delta)' \
        '(-o --output)'{-o,--output}'[output format]:format:(text json)' \
        '--tldr[show tldr page]' \
        '1:left:_files' \
        '2:right:_files'
      ;;
    inspect)
      _arguments -C \
        $common \
        '(-d --digest)'{-d,--digest}'[content digest]' \
        '*:artifact:_files'
      ;;
    ls)
      _arguments -C \
        $common \
        '--all[include unrecognized files]' \
        '--chop[chop common prefixes]' \
        '--deep[probe array headers]' \
        '--digest[content digest]' \
        '(-r --recursive)'{-r,--recursive}'[descend into directories]' \
        '::directory:_directories'
      ;;
    query)
      _arguments -C \
        $common \
        '1:document:_files -g "*.(json|yaml|yml)"' \
        '2:path'
      ;;
    *)
      _arguments -C $common '*:file:_files'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _toolman toolman
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(stdout, bashCompletionScript)
	case "zsh":
		fmt.Fprint(stdout, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(stdout, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(stdout, bashCompletionScript)
		} else {
			fmt.Fprintln(os.Stderr, "usage: toolman completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "toolman completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
