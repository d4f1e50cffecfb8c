package prompt

// Checklist is embedded verbatim in every analysis prompt. Lines carry
// trailing double spaces, which render as Markdown line breaks.
const Checklist = "Checklist for ATS Score Calculation and Improvement  \n" +
	"\n" +
	"1. Resume Parsing  \n" +
	"   - Extract text content and preserve formatting (headings, bullet points, etc.).  \n" +
	"   - Identify key sections: Work Experience, Education, Skills, Certifications.  \n" +
	"\n" +
	"2. Job Description Analysis  \n" +
	"   - Extract required keywords and phrases from the job description.  \n" +
	"   - Identify critical skills, certifications, and experience requirements.  \n" +
	"   - Highlight industry-specific terminology.  \n" +
	"\n" +
	"3. Keyword Matching  \n" +
	"   - Compare keywords from the job description to those found in the resume.  \n" +
	"   - Count the frequency of keyword occurrences.  \n" +
	"   - Ensure keywords are detected in context (e.g., within relevant sections).  \n" +
	"\n" +
	"4. Contextual and Relevance Evaluation  \n" +
	"   - Assess if keywords appear in appropriate sections.  \n" +
	"   - Evaluate context for meaningful usage rather than repetition.  \n" +
	"\n" +
	"5. Formatting and Structure Assessment  \n" +
	"   - Check for ATS-friendly formatting (clear headings, bullet points, simple layout).  \n" +
	"   - Verify that the resume avoids excessive graphics, tables, or unusual elements.  \n" +
	"\n" +
	"6. Scoring Algorithm  \n" +
	"   - Define weighting for each component (keyword match, context, structure).  \n" +
	"   - Aggregate scores to generate an overall ATS score with a detailed breakdown.  \n" +
	"   - Provide a breakdown of scores for different sections.  \n" +
	"\n" +
	"7. Detailed Improvement Report  \n" +
	"   - Highlight missing or underrepresented keywords.  \n" +
	"   - Provide recommendations to enhance keyword placement and formatting.  \n" +
	"\n" +
	"8. Error Handling and Validation  \n" +
	"   - Ensure accurate text extraction without loss of key formatting.  \n" +
	"   - Handle parsing errors gracefully with user-friendly messages.  \n" +
	"\n" +
	"9. Testing and Refinement  \n" +
	"   - Test the application with diverse resume formats and job descriptions.  \n" +
	"   - Regularly update the application to handle new resume trends and ATS criteria.\n"
