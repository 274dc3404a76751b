package repository

import "codeinterview/internal/model"

// DefaultTemplate returns the starter code for lang.
// Unknown languages fall back to the javascript template.
func DefaultTemplate(lang model.Language) string {
	if t, ok := templates[lang]; ok {
		return t
	}
	return templates[model.LanguageJavaScript]
}

var templates = map[model.Language]string{
	model.LanguageJavaScript: javascriptTemplate,
	model.LanguageTypeScript: typescriptTemplate,
	model.LanguagePython:     pythonTemplate,
	model.LanguageJava:       javaTemplate,
	model.LanguageCPP:        cppTemplate,
	model.LanguageCSharp:     csharpTemplate,
	model.LanguageGo:         goTemplate,
	model.LanguageRust:       rustTemplate,
}

const javascriptTemplate = `// Welcome to the coding interview!
// Write your JavaScript code here

function solution(input) {
  // Your code here
  return input;
}

// Test your solution
console.log(solution("Hello, World!"));
`

const typescriptTemplate = `// Welcome to the coding interview!
// Write your TypeScript code here

function solution(input: string): string {
  // Your code here
  return input;
}

// Test your solution
console.log(solution("Hello, World!"));
`

const pythonTemplate = `# Welcome to the coding interview!
# Write your Python code here

def solution(input):
    # Your code here
    return input

# Test your solution
print(solution("Hello, World!"))
`

const javaTemplate = `// Welcome to the coding interview!
// Write your Java code here

public class Solution {
    public static void main(String[] args) {
        System.out.println(solution("Hello, World!"));
    }

    public static String solution(String input) {
        // Your code here
        return input;
    }
}
`

const cppTemplate = `// Welcome to the coding interview!
// Write your C++ code here

#include <iostream>
#include <string>

std::string solution(std::string input) {
    // Your code here
    return input;
}

int main() {
    std::cout << solution("Hello, World!") << std::endl;
    return 0;
}
`

const csharpTemplate = `// Welcome to the coding interview!
// Write your C# code here

using System;

class Solution {
    static void Main() {
        Console.WriteLine(Solve("Hello, World!"));
    }

    static string Solve(string input) {
        // Your code here
        return input;
    }
}
`

const goTemplate = `// Welcome to the coding interview!
// Write your Go code here

package main

import "fmt"

func solution(input string) string {
    // Your code here
    return input
}

func main() {
    fmt.Println(solution("Hello, World!"))
}
`

const rustTemplate = `// Welcome to the coding interview!
// Write your Rust code here

fn solution(input: &str) -> String {
    // Your code here
    input.to_string()
}

fn main() {
    println!("{}", solution("Hello, World!"));
}
`
